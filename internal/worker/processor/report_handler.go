package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"rulemark/internal/batch"
	"rulemark/internal/ports"
)

type ReportHandler struct {
	sp ports.StorageProvider
}

func NewReportHandler(sp ports.StorageProvider) *ReportHandler {
	return &ReportHandler{sp: sp}
}

// Write stores the batch result as a JSON artifact and returns its object key.
func (rh *ReportHandler) Write(ctx context.Context, jobID string, res *batch.Result) (string, error) {
	body, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	objectKey := fmt.Sprintf("reports/%s.json", jobID)

	out, err := rh.sp.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   objectKey,
		ContentType: "application/json",
		Reader:      bytes.NewReader(body),
		Size:        int64(len(body)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to store report: %w", err)
	}

	return out.ObjectKey, nil
}
