package s3client

import (
	"errors"
	"strings"
)

// ValidateBucketName checks a bucket name against the rules shared by S3 and Cloud Storage
func ValidateBucketName(bucketName string) error {
	if len(bucketName) < 3 || len(bucketName) > 63 {
		return errors.New("bucket name must be between 3 and 63 characters")
	}
	if strings.Contains(bucketName, " ") {
		return errors.New("bucket name cannot contain spaces")
	}
	if !isDNSCompatible(bucketName) {
		return errors.New("bucket name must be DNS compliant")
	}
	return nil
}

// isDNSCompatible allows lowercase letters, digits, hyphens, dots and underscores,
// starting and ending with a letter or digit
func isDNSCompatible(name string) bool {
	for _, char := range name {
		if !(char >= 'a' && char <= 'z') && !(char >= '0' && char <= '9') &&
			char != '-' && char != '.' && char != '_' {
			return false
		}
	}
	first, last := name[0], name[len(name)-1]
	return isAlnum(first) && isAlnum(last)
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
