package main

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/function61/gokit/stringutils"
)

const maxSmsLength = 160

// delivers one text message to a phone number via SNS, from the configured
// sender number. single attempt, no retries.
func smsSender(conf *config) sendFn {
	return func(recipient string, text string) error {
		awsSession, err := session.NewSession()
		if err != nil {
			return err
		}

		snsSvc := sns.New(awsSession, aws.NewConfig().WithRegion(conf.awsRegion))

		_, err = snsSvc.Publish(&sns.PublishInput{
			PhoneNumber: aws.String(recipient),
			Message:     aws.String(stringutils.Truncate(text, maxSmsLength)),
			MessageAttributes: map[string]*sns.MessageAttributeValue{
				"AWS.MM.SMS.OriginationNumber": {
					DataType:    aws.String("String"),
					StringValue: aws.String(conf.fromNumber),
				},
			},
		})
		return err
	}
}
