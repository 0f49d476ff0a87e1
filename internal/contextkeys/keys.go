package contextkeys

import "context"

type messageTypeKey struct{}
type fileInfoKey struct{}
type callbackDataKey struct{}

type MessageType string

const (
	MessageTypeText        MessageType = "text"
	MessageTypeVideo       MessageType = "video"
	MessageTypeAudio       MessageType = "audio"
	MessageTypeCommand     MessageType = "command"
	MessageTypeClickButton MessageType = "clickButton"
	MessageTypeUnknown     MessageType = "unknown"
)

type FileInfo struct {
	FileType MessageType `json:"file_type"`
	FileID   string      `json:"file_id"`
	FileSize int64       `json:"file_size,omitempty"`
	MimeType string      `json:"mime_type,omitempty"`
	FileName string      `json:"file_name,omitempty"`
	Duration int         `json:"duration,omitempty"`
}

func WithMessageType(ctx context.Context, msgType MessageType) context.Context {
	return context.WithValue(ctx, messageTypeKey{}, msgType)
}

func GetMessageType(ctx context.Context) (MessageType, bool) {
	v := ctx.Value(messageTypeKey{})
	if v == nil {
		return MessageTypeUnknown, false
	}
	return v.(MessageType), true
}

func WithFileInfo(ctx context.Context, info *FileInfo) context.Context {
	return context.WithValue(ctx, fileInfoKey{}, info)
}

func GetFileInfo(ctx context.Context) (*FileInfo, bool) {
	v := ctx.Value(fileInfoKey{})
	if v == nil {
		return nil, false
	}
	return v.(*FileInfo), true
}

func WithCallbackData(ctx context.Context, data string) context.Context {
	return context.WithValue(ctx, callbackDataKey{}, data)
}

func GetCallbackData(ctx context.Context) (string, bool) {
	v := ctx.Value(callbackDataKey{})
	if v == nil {
		return "", false
	}
	return v.(string), true
}
