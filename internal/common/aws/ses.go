// internal/common/aws/ses.go
package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESAPI is the part of the SES client the service uses.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESClient struct {
	client    SESAPI
	fromEmail string
}

func NewSESClient(ctx context.Context, region, fromEmail string) (*SESClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &SESClient{client: ses.NewFromConfig(cfg), fromEmail: fromEmail}, nil
}

func NewSESClientWithAPI(api SESAPI, fromEmail string) *SESClient {
	return &SESClient{client: api, fromEmail: fromEmail}
}

// SendEmail sends a multipart text/HTML message and returns the SES message id.
func (s *SESClient) SendEmail(ctx context.Context, to, subject, textBody, htmlBody string) (string, error) {
	body := &types.Body{
		Text: &types.Content{Data: aws.String(textBody), Charset: aws.String("UTF-8")},
	}
	if htmlBody != "" {
		body.Html = &types.Content{Data: aws.String(htmlBody), Charset: aws.String("UTF-8")}
	}

	out, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body:    body,
		},
		Source: aws.String(s.fromEmail),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.MessageId), nil
}
