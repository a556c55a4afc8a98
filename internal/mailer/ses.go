// Copyright (C) 2020  Lukas Dietrich <lukas@lukasdietrich.com>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/emersion/go-message/mail"
	"github.com/spf13/viper"

	"github.com/lukasdietrich/rundbrief/internal/log"
)

func init() {
	viper.SetDefault("mailer.ses.region", "eu-central-1")
}

// SESOptions configure the amazon ses transport. Credentials are taken from the default aws
// credential chain.
type SESOptions struct {
	Region string
}

// SESOptionsFromViper reads the ses options.
func SESOptionsFromViper() SESOptions {
	return SESOptions{
		Region: viper.GetString("mailer.ses.region"),
	}
}

type sesAPI interface {
	SendEmail(context.Context, *sesv2.SendEmailInput, ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type sesTransport struct {
	client sesAPI
}

// NewSESTransport creates a transport submitting raw messages to amazon ses.
func NewSESTransport(ctx context.Context, opts SESOptions) (Transport, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("could not load aws config: %w", err)
	}

	return &sesTransport{client: sesv2.NewFromConfig(cfg)}, nil
}

// Send submits the message to ses. Ses uses its own envelope sender, so a return path differing
// from the visible sender (a verp address) is passed as the feedback forwarding address and
// bounces reach it through ses instead.
func (t *sesTransport) Send(ctx context.Context, msg *Message) error {
	from, recipients, err := Envelope(msg)
	if err != nil {
		return err
	}

	visible, err := mail.ParseAddress(msg.visibleFrom())
	if err != nil {
		return fmt.Errorf("invalid sender %q: %w", msg.visibleFrom(), err)
	}

	data, err := Compose(msg)
	if err != nil {
		return err
	}

	input := sesv2.SendEmailInput{
		FromEmailAddress: aws.String(visible.Address),
		Destination:      &types.Destination{ToAddresses: recipients},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: data},
		},
	}

	if !strings.EqualFold(from, visible.Address) {
		input.FeedbackForwardingEmailAddress = aws.String(from)
	}

	output, err := t.client.SendEmail(ctx, &input)
	if err != nil {
		return fmt.Errorf("ses rejected message: %w", err)
	}

	log.DebugContext(ctx).
		Str("from", from).
		Strs("to", recipients).
		Str("messageId", aws.ToString(output.MessageId)).
		Msg("message submitted")

	return nil
}
