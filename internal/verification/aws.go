package verification

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
)

// AWSOptions locates and authenticates against AWS or an S3 compatible
// endpoint. Static credentials are used when both keys are set, otherwise
// the default AWS chain.
type AWSOptions struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

func (o AWSOptions) newSession(pathStyle bool) (*session.Session, error) {
	cfg := aws.Config{Region: aws.String(o.Region)}
	if o.Endpoint != "" {
		cfg.Endpoint = aws.String(o.Endpoint)
		cfg.S3ForcePathStyle = aws.Bool(pathStyle)
	}
	if o.AccessKey != "" && o.SecretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(o.AccessKey, o.SecretKey, "")
	}
	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return sess, nil
}
