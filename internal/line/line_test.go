// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package line

import (
	"encoding/json"
	"testing"
	"time"

	"go.astrophena.name/kothbot/internal/testutil"
)

func TestValidateSignature(t *testing.T) {
	const secret = "channel-secret"
	body := []byte(`{"destination":"U0","events":[]}`)
	sig := Sign(secret, body)

	cases := map[string]struct {
		secret    string
		body      []byte
		signature string
		want      bool
	}{
		"valid":           {secret: secret, body: body, signature: sig, want: true},
		"wrong secret":    {secret: "other", body: body, signature: sig},
		"tampered body":   {secret: secret, body: []byte(`{"destination":"U1","events":[]}`), signature: sig},
		"empty signature": {secret: secret, body: body, signature: ""},
		"not base64":      {secret: secret, body: body, signature: "!!!"},
		"truncated":       {secret: secret, body: body, signature: sig[:len(sig)-4]},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, ValidateSignature(tc.secret, tc.body, tc.signature), tc.want)
		})
	}
}

func TestSign(t *testing.T) {
	// Computed with: printf '%s' 'hello' | openssl dgst -sha256 -hmac secret -binary | base64
	testutil.AssertEqual(t, Sign("secret", []byte("hello")), "iKqz7ejTrflNJquQ07r9SiCDBww7zOnAFO4EpEOEfAs=")
}

func TestConversationID(t *testing.T) {
	cases := map[string]struct {
		src  Source
		want string
	}{
		"user":          {src: Source{Type: "user", UserID: "U1"}, want: "U1"},
		"group":         {src: Source{Type: "group", UserID: "U1", GroupID: "C1"}, want: "C1"},
		"room":          {src: Source{Type: "room", UserID: "U1", RoomID: "R1"}, want: "R1"},
		"group wins":    {src: Source{GroupID: "C1", RoomID: "R1", UserID: "U1"}, want: "C1"},
		"no identifier": {src: Source{Type: "user"}, want: ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, tc.src.ConversationID(), tc.want)
		})
	}
}

func TestEventDecoding(t *testing.T) {
	const payload = `{
  "destination": "Uxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx",
  "events": [
    {
      "type": "message",
      "message": {"type": "text", "id": "468789577898262530", "text": "안녕하세요"},
      "webhookEventId": "01H810YECXQQZ37VAXPF6H9E6T",
      "deliveryContext": {"isRedelivery": false},
      "timestamp": 1692251666727,
      "source": {"type": "group", "groupId": "Ca56f94637c", "userId": "U4af4980629"},
      "replyToken": "38ef843bde154d9b91c21320ffd17a0f",
      "mode": "active"
    },
    {
      "type": "message",
      "message": {"type": "sticker", "id": "1", "packageId": "446", "stickerId": "1988"},
      "timestamp": 1692251666727,
      "source": {"type": "user", "userId": "U4af4980629"},
      "replyToken": "x"
    },
    {
      "type": "follow",
      "timestamp": 1692251666727,
      "source": {"type": "user", "userId": "U4af4980629"},
      "replyToken": "y"
    }
  ]
}`
	p := testutil.UnmarshalJSON[WebhookPayload](t, []byte(payload))
	testutil.AssertEqual(t, len(p.Events), 3)

	ev := p.Events[0]
	text, ok := ev.Text()
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, text, "안녕하세요")
	testutil.AssertEqual(t, ev.Source.ConversationID(), "Ca56f94637c")
	testutil.AssertEqual(t, ev.Time().Equal(time.UnixMilli(1692251666727)), true)
	testutil.AssertEqual(t, ev.DeliveryContext.IsRedelivery, false)

	for _, ev := range p.Events[1:] {
		if _, ok := ev.Text(); ok {
			t.Errorf("event %q reported as text", ev.Type)
		}
	}

	// Unknown fields don't break decoding.
	var p2 WebhookPayload
	if err := json.Unmarshal([]byte(`{"events":[{"type":"unsend","unsend":{"messageId":"1"}}]}`), &p2); err != nil {
		t.Fatal(err)
	}
}

func TestTruncate(t *testing.T) {
	cases := map[string]struct {
		in   string
		n    int
		want string
	}{
		"short":       {in: "안녕", n: 5, want: "안녕"},
		"exact":       {in: "สวัสดี", n: 6, want: "สวัสดี"},
		"runes count": {in: "안녕하세요", n: 2, want: "안녕"},
		"zero":        {in: "abc", n: 0, want: ""},
		"empty":       {in: "", n: 3, want: ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, Truncate(tc.in, tc.n), tc.want)
		})
	}
}
