package repositories

import (
	"fmt"
	"strings"
)

// Record is a human readable view of one stored key, used by the debug
// inspector and the inspect command.
type Record struct {
	Key    string
	Kind   string
	At     string
	Owner  string
	Detail string
}

// Describe decodes a raw badger entry by its key prefix. Entries that fail
// to decode are still returned, with the error as detail.
func Describe(key string, val []byte) Record {
	record := Record{Key: key, Kind: "RAW", At: "--:--:--", Detail: fmt.Sprintf("Size: %d bytes", len(val))}
	switch {
	case strings.HasPrefix(key, conversationPrefix):
		record.Kind = "MESSAGE"
		message, err := decodeDiskMessage(val)
		if err != nil {
			record.Detail = "Error: " + err.Error()
			return record
		}
		record.At = message.At.Format("15:04:05")
		record.Owner = message.From.String() + " -> " + message.To.String()
		record.Detail = message.Text
	case strings.HasPrefix(key, postPrefix):
		record.Kind = "POST"
		post, err := decodePost(val)
		if err != nil {
			record.Detail = "Error: " + err.Error()
			return record
		}
		record.At = post.CreatedAt.Format("15:04:05")
		record.Owner = post.AuthorCode.String()
		record.Detail = fmt.Sprintf("%s (likes=%d reports=%d replies=%d lang=%s)",
			post.Content, post.Likes, post.ReportCount, len(post.Replies), post.Language)
	case strings.HasPrefix(key, userPrefix):
		record.Kind = "USER"
		user, err := decodeUser(val)
		if err != nil {
			record.Detail = "Error: " + err.Error()
			return record
		}
		record.At = user.CreatedAt.Format("15:04:05")
		record.Owner = user.Code.String()
		record.Detail = user.ID.String()
	}
	return record
}
