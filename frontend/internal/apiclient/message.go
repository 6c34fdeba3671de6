package apiclient

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/itchan-dev/forllm/shared/api"
	"github.com/itchan-dev/forllm/shared/domain"
	"github.com/itchan-dev/forllm/shared/validation"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// UploadAttachment streams one file to the post as multipart/form-data
// with the fields "file" and "order_in_post".
func (c *APIClient) UploadAttachment(ctx context.Context, postId domain.PostId, file domain.Blob, orderInPost int) (domain.Attachment, error) {
	pipeReader, pipeWriter := io.Pipe()
	writer := multipart.NewWriter(pipeWriter)

	go func() {
		defer pipeWriter.Close()
		defer writer.Close()

		if err := writer.WriteField("order_in_post", strconv.Itoa(orderInPost)); err != nil {
			pipeWriter.CloseWithError(err)
			return
		}

		src, err := file.Open()
		if err != nil {
			pipeWriter.CloseWithError(err)
			return
		}
		defer src.Close()

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(file.Name())))
		h.Set("Content-Type", validation.DetectMimeType(file.Name(), file.Type()))

		part, err := writer.CreatePart(h)
		if err != nil {
			pipeWriter.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, src); err != nil {
			pipeWriter.CloseWithError(err)
			return
		}
	}()

	path := fmt.Sprintf("/api/posts/%d/attachments", postId)
	resp, err := c.do(ctx, "upload_attachment", "POST", path, pipeReader, writer.FormDataContentType())
	if err != nil {
		// unblock the writer goroutine if the request never consumed the body
		pipeReader.CloseWithError(err)
		return domain.Attachment{}, fmt.Errorf("failed to upload %s: %w", file.Name(), err)
	}
	defer resp.Body.Close()

	var response api.AttachmentResponse
	if err := decodeResponse(resp, &response); err != nil {
		return domain.Attachment{}, fmt.Errorf("failed to upload %s: %w", file.Name(), err)
	}
	return response.ToDomain(), nil
}

func (c *APIClient) UpdateAttachmentPrompt(ctx context.Context, attachmentId domain.AttachmentId, prompt string) (domain.Attachment, error) {
	var response api.AttachmentResponse
	path := fmt.Sprintf("/api/attachments/%d", attachmentId)
	if err := c.callJSON(ctx, "update_attachment", "PUT", path, api.UpdateAttachmentRequest{UserPrompt: prompt}, &response); err != nil {
		return domain.Attachment{}, fmt.Errorf("failed to update prompt of attachment %d: %w", attachmentId, err)
	}
	return response.ToDomain(), nil
}
