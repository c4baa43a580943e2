package proto

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind is the envelope type tag carried in the "type" field.
type Kind string

const (
	// Inbound kinds (client -> server).
	KindAuth         Kind = "auth"
	KindEncryptedMsg Kind = "encrypted_msg"
	KindFileStart    Kind = "file_start"
	KindFileChunk    Kind = "file_chunk"
	KindFileComplete Kind = "file_complete"
	KindGetUsers     Kind = "get_users"

	// Outbound kinds (server -> client).
	KindWelcome  Kind = "welcome"
	KindUserList Kind = "user_list"
	KindError    Kind = "error"
)

// ToAll is the "to" sentinel that addresses every other online client.
const ToAll = "all"

// Error messages sent back to clients.
const (
	MsgNotAuthenticated  = "not authenticated"
	MsgRecipientNotFound = "recipient not found"
	MsgRateLimited       = "rate limit exceeded"
)

// Field names the relay reads or stamps.
const (
	fieldType      = "type"
	fieldTo        = "to"
	fieldName      = "name"
	fieldPublicKey = "publicKey"
	fieldUniqueID  = "uniqueId"
	fieldEncrypted = "encrypted"
	fieldBundle    = "encryptedMessages"
	fieldFrom      = "from"
	fieldFromID    = "fromId"
	fieldBroadcast = "broadcast"
)

// ErrMalformed is returned when a frame is not a JSON object.
var ErrMalformed = errors.New("malformed envelope")

// Inbound is a decoded client envelope. Routing metadata is typed; Fields holds
// every top-level member verbatim so opaque payloads can be passed through.
type Inbound struct {
	Type Kind
	To   string

	// auth
	Name      string
	PublicKey json.RawMessage

	// encrypted_msg
	UniqueID          json.RawMessage
	Encrypted         json.RawMessage
	EncryptedMessages json.RawMessage

	Fields map[string]json.RawMessage
}

// Broadcast reports whether the envelope is addressed to everyone.
func (in *Inbound) Broadcast() bool {
	return in.To == ToAll
}

// Decode parses a single frame. Only the routing metadata is interpreted;
// a missing or non-string "type" yields an empty Kind rather than an error.
func Decode(data []byte) (*Inbound, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformed)
	}

	in := &Inbound{
		Type:              Kind(stringField(fields, fieldType)),
		To:                stringField(fields, fieldTo),
		Name:              stringField(fields, fieldName),
		PublicKey:         fields[fieldPublicKey],
		UniqueID:          fields[fieldUniqueID],
		Encrypted:         fields[fieldEncrypted],
		EncryptedMessages: fields[fieldBundle],
		Fields:            fields,
	}
	return in, nil
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// Welcome confirms authentication and tells the client its connection id.
type Welcome struct {
	Type Kind   `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

// User is one entry of a presence list.
type User struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	PublicKey json.RawMessage `json:"publicKey,omitempty"`
}

// UserList carries the current presence set.
type UserList struct {
	Type  Kind   `json:"type"`
	Users []User `json:"users"`
}

// Error is a user-visible failure notice.
type Error struct {
	Type    Kind   `json:"type"`
	Message string `json:"message"`
}

// EncryptedMsg is the relayed form of a client ciphertext. Unicast carries
// Encrypted, broadcast carries EncryptedMessages; the two are never merged.
type EncryptedMsg struct {
	Type              Kind            `json:"type"`
	From              string          `json:"from"`
	FromID            string          `json:"fromId"`
	Encrypted         json.RawMessage `json:"encrypted,omitempty"`
	EncryptedMessages json.RawMessage `json:"encryptedMessages,omitempty"`
	UniqueID          json.RawMessage `json:"uniqueId,omitempty"`
	TS                int64           `json:"ts"`
	Broadcast         bool            `json:"broadcast"`
}

// NewWelcome builds a welcome envelope.
func NewWelcome(id, name string) Welcome {
	return Welcome{Type: KindWelcome, ID: id, Name: name}
}

// NewUserList builds a user_list envelope. A nil slice is encoded as [].
func NewUserList(users []User) UserList {
	if users == nil {
		users = []User{}
	}
	return UserList{Type: KindUserList, Users: users}
}

// NewError builds an error envelope.
func NewError(msg string) Error {
	return Error{Type: KindError, Message: msg}
}

// NewEncryptedMsg builds the relayed ciphertext for a unicast or broadcast send.
func NewEncryptedMsg(in *Inbound, from, fromID string, ts int64) EncryptedMsg {
	out := EncryptedMsg{
		Type:      KindEncryptedMsg,
		From:      from,
		FromID:    fromID,
		UniqueID:  in.UniqueID,
		TS:        ts,
		Broadcast: in.Broadcast(),
	}
	if out.Broadcast {
		out.EncryptedMessages = in.EncryptedMessages
	} else {
		out.Encrypted = in.Encrypted
	}
	return out
}

// Relayed copies every inbound member and stamps the sender metadata over it.
func Relayed(in *Inbound, from, fromID string) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(in.Fields)+3)
	for k, v := range in.Fields {
		out[k] = v
	}

	stamps := map[string]any{
		fieldFrom:      from,
		fieldFromID:    fromID,
		fieldBroadcast: in.Broadcast(),
	}
	for k, v := range stamps {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("stamp %s: %w", k, err)
		}
		out[k] = raw
	}
	return out, nil
}
