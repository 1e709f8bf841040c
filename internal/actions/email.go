package actions

import (
	"context"
	"encoding/json"
	"fmt"
)

// Recipient is an email address with an optional display name.
type Recipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// SendEmailParams are the parameters of email.send.
type SendEmailParams struct {
	FromMailboxID string      `json:"fromMailboxId"`
	FromAlias     string      `json:"fromAlias,omitempty"`
	Subject       string      `json:"subject"`
	HTMLBody      string      `json:"htmlBody"`
	To            []Recipient `json:"to"`
	CC            []Recipient `json:"cc,omitempty"`
	BCC           []Recipient `json:"bcc,omitempty"`
}

type emailFrom struct {
	Mailbox string `json:"mailbox"`
	Alias   string `json:"alias,omitempty"`
}

type emailContent struct {
	HTMLText string `json:"htmlText"`
}

type sendEmailInput struct {
	From    emailFrom    `json:"from"`
	To      []Recipient  `json:"to"`
	CC      []Recipient  `json:"cc,omitempty"`
	BCC     []Recipient  `json:"bcc,omitempty"`
	Subject string       `json:"subject"`
	Content emailContent `json:"content"`
}

const sendEmailMutation = `
mutation($input: SendEmailInput!) {
  sendEmail(input: $input) {
    id
  }
}`

func (r *Router) sendEmail(ctx context.Context, params json.RawMessage) ([]json.RawMessage, error) {
	var p SendEmailParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.FromMailboxID == "" {
		return nil, fmt.Errorf("fromMailboxId is required")
	}

	to := recipients(p.To)
	if len(to) == 0 {
		return nil, fmt.Errorf(`please provide at least one "To" recipient`)
	}

	resp, err := r.do(ctx, sendEmailMutation, map[string]any{
		"input": sendEmailInput{
			From:    emailFrom{Mailbox: p.FromMailboxID, Alias: p.FromAlias},
			To:      to,
			CC:      recipients(p.CC),
			BCC:     recipients(p.BCC),
			Subject: p.Subject,
			Content: emailContent{HTMLText: p.HTMLBody},
		},
	})
	if err != nil {
		return nil, err
	}

	sent, err := resp.RawAt("data.sendEmail")
	if err != nil {
		return nil, err
	}
	return []json.RawMessage{sent}, nil
}

// recipients drops entries without an address. Returns nil when none are left.
func recipients(in []Recipient) []Recipient {
	var out []Recipient
	for _, r := range in {
		if r.Email != "" {
			out = append(out, r)
		}
	}
	return out
}
