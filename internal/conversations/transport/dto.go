package transport

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=4096"`
}

type AttachmentURLQuery struct {
	FileKey string `form:"fileKey" validate:"required"`
}
