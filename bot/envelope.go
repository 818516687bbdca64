package bot

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/xml"
	"sort"
	"strings"
	"time"
)

// inboundMessage is the platform's webhook envelope. Unknown extra
// fields are ignored by the decoder, which is all the tolerance the
// protocol needs.
type inboundMessage struct {
	XMLName      xml.Name `xml:"xml"`
	ToUserName   string   `xml:"ToUserName"`
	FromUserName string   `xml:"FromUserName"`
	CreateTime   int64    `xml:"CreateTime"`
	MsgType      string   `xml:"MsgType"`
	Content      string   `xml:"Content"`
	Event        string   `xml:"Event"`
}

type cdata struct {
	Text string `xml:",cdata"`
}

type outboundMessage struct {
	XMLName      xml.Name `xml:"xml"`
	ToUserName   cdata    `xml:"ToUserName"`
	FromUserName cdata    `xml:"FromUserName"`
	CreateTime   int64    `xml:"CreateTime"`
	MsgType      cdata    `xml:"MsgType"`
	Content      cdata    `xml:"Content"`
}

func decodeInbound(raw []byte) (inboundMessage, error) {
	var msg inboundMessage
	err := xml.Unmarshal(raw, &msg)
	return msg, err
}

// encodeTextReply builds a text reply envelope. Callers pass the
// inbound addressing already swapped: the sender becomes to.
func encodeTextReply(to, from, content string, at time.Time) ([]byte, error) {
	return xml.Marshal(outboundMessage{
		ToUserName:   cdata{to},
		FromUserName: cdata{from},
		CreateTime:   at.Unix(),
		MsgType:      cdata{"text"},
		Content:      cdata{content},
	})
}

// validSignature checks the platform's SHA1 echo signature: the token,
// timestamp and nonce sorted, joined and hashed must equal signature.
func validSignature(token, signature, timestamp, nonce string) bool {
	if signature == "" {
		return false
	}
	params := []string{token, timestamp, nonce}
	sort.Strings(params)

	sum := sha1.Sum([]byte(strings.Join(params, "")))
	return hex.EncodeToString(sum[:]) == signature
}
