package intake

import (
	"encoding/json"
	"fmt"

	"github.com/terra-clan/consult-portal/internal/models"
)

// DocumentStage is the only stage that accepts uploads
const DocumentStage = 12

const uploadedFilesKey = "uploaded_files"

// Documents decodes the stored document descriptors of the intake data
func Documents(d Data) ([]models.UploadedDocument, error) {
	raw, ok := d[uploadedFilesKey]
	if !ok || raw == nil {
		return nil, nil
	}

	payload, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode uploaded files: %w", err)
	}

	var docs []models.UploadedDocument
	if err := json.Unmarshal(payload, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode uploaded files: %w", err)
	}
	return docs, nil
}

// DocumentsUpdate builds the partial update that stores docs in stage data
func DocumentsUpdate(docs []models.UploadedDocument) (Data, error) {
	if docs == nil {
		docs = []models.UploadedDocument{}
	}
	payload, err := json.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode uploaded files: %w", err)
	}

	list := []interface{}{}
	if err := json.Unmarshal(payload, &list); err != nil {
		return nil, fmt.Errorf("failed to decode uploaded files: %w", err)
	}
	return Data{uploadedFilesKey: list}, nil
}
