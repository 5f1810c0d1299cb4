// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package line implements the parts of the LINE Messaging API used by
// kothbot: webhook signature verification, webhook payloads and the reply
// endpoint.
//
// See https://developers.line.biz/en/reference/messaging-api/.
package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"time"
)

// SignatureHeader is the header that carries the webhook signature.
const SignatureHeader = "X-Line-Signature"

// Sign returns the signature of body: base64-encoded HMAC-SHA256 keyed by the
// channel secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ValidateSignature reports whether signature matches body signed with
// secret. The comparison takes constant time.
func ValidateSignature(secret string, body []byte, signature string) bool {
	got, err := base64.StdEncoding.DecodeString(signature)
	if err != nil || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// WebhookPayload is the body of a webhook request.
type WebhookPayload struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

// Event is a single webhook event.
type Event struct {
	Type            string           `json:"type"`
	Mode            string           `json:"mode,omitempty"`
	Timestamp       int64            `json:"timestamp"`
	ReplyToken      string           `json:"replyToken,omitempty"`
	WebhookEventID  string           `json:"webhookEventId"`
	DeliveryContext *DeliveryContext `json:"deliveryContext,omitempty"`
	Source          Source           `json:"source"`
	Message         *Message         `json:"message,omitempty"`
}

// DeliveryContext tells whether an event is being redelivered.
type DeliveryContext struct {
	IsRedelivery bool `json:"isRedelivery"`
}

// Time returns the time the event happened.
func (e *Event) Time() time.Time { return time.UnixMilli(e.Timestamp) }

// Text returns the text of a text message event.
func (e *Event) Text() (text string, ok bool) {
	if e.Type != "message" || e.Message == nil || e.Message.Type != "text" {
		return "", false
	}
	return e.Message.Text, true
}

// Source is where an event came from.
type Source struct {
	Type    string `json:"type"`
	UserID  string `json:"userId,omitempty"`
	GroupID string `json:"groupId,omitempty"`
	RoomID  string `json:"roomId,omitempty"`
}

// ConversationID returns the identifier of the conversation: the group, the
// multi-person chat or, for one-on-one chats, the user.
func (s Source) ConversationID() string {
	switch {
	case s.GroupID != "":
		return s.GroupID
	case s.RoomID != "":
		return s.RoomID
	}
	return s.UserID
}

// Message is the message of a message event.
type Message struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}
