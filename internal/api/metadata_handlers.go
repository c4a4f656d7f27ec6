package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"solana-token-minter/internal/domain"
	"solana-token-minter/internal/metadata"
	"solana-token-minter/internal/oplog"
)

// multipartOverhead is allowed on top of the file limit for boundaries and text fields.
const multipartOverhead = 1 << 20

type uploadLogoResponse struct {
	ImageURI  string `json:"imageUri"`
	IpfsHash  string `json:"ipfsHash"`
	SessionID string `json:"sessionId"`
}

type attributeJSON struct {
	TraitType string      `json:"trait_type"`
	Value     looseString `json:"value"`
}

type generateMetadataRequest struct {
	ImageURI    string          `json:"imageUri"`
	Name        string          `json:"name"`
	Symbol      string          `json:"symbol"`
	Description string          `json:"description"`
	SessionID   string          `json:"sessionId"`
	Attributes  []attributeJSON `json:"attributes"`
}

type generateMetadataResponse struct {
	MetadataURI  string `json:"metadataUri"`
	MetadataHash string `json:"metadataHash"`
	SessionID    string `json:"sessionId"`
}

type uploadMetadataResponse struct {
	ImageURI     string `json:"imageUri"`
	IpfsHash     string `json:"ipfsHash"`
	MetadataURI  string `json:"metadataUri"`
	MetadataHash string `json:"metadataHash"`
	SessionID    string `json:"sessionId"`
}

type uploadedFile struct {
	data     []byte
	filename string
	mimeType string
}

// readUpload parses a multipart body and returns its "file" part.
func (h *handler) readUpload(w http.ResponseWriter, r *http.Request) (*uploadedFile, error) {
	limit := h.Metadata.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	if err := r.ParseMultipartForm(limit + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: request exceeds %d bytes", domain.ErrFileTooLarge, limit)
		}
		return nil, fmt.Errorf("%w: expected multipart/form-data: %v", domain.ErrInvalidRequest, err)
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("%w: file field is required", domain.ErrInvalidRequest)
	}
	defer f.Close()

	if header.Size > limit {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", domain.ErrFileTooLarge, header.Size, limit)
	}
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read file: %v", domain.ErrInvalidRequest, err)
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(header.Filename))); byExt != "" {
			mimeType = byExt
		}
	}
	return &uploadedFile{data: data, filename: header.Filename, mimeType: mimeType}, nil
}

func (h *handler) uploadLogo(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	file, err := h.readUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	sess, err := h.Metadata.UploadLogo(ctx, file.data, file.filename, file.mimeType)

	entry := oplog.Entry{Operation: domain.OpUploadLogo, Started: start, Err: err}
	if sess != nil {
		entry.SessionID = sess.ID
	}
	h.OpLog.Record(ctx, entry)

	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadLogoResponse{
		ImageURI:  sess.Image.GatewayURI,
		IpfsHash:  sess.Image.IpfsHash,
		SessionID: sess.ID,
	})
}

func (h *handler) generateMetadata(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var body generateMetadataRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(body.ImageURI) == "" && strings.TrimSpace(body.SessionID) == "" {
		writeError(w, fmt.Errorf("%w: imageUri or sessionId is required", domain.ErrInvalidRequest))
		return
	}

	attrs := make([]domain.MetadataAttribute, 0, len(body.Attributes))
	for _, a := range body.Attributes {
		attrs = append(attrs, domain.MetadataAttribute{TraitType: a.TraitType, Value: string(a.Value)})
	}

	ctx := context.WithoutCancel(r.Context())
	sess, pin, err := h.Metadata.GenerateMetadata(ctx, metadata.GenerateRequest{
		ImageURI:    strings.TrimSpace(body.ImageURI),
		Name:        body.Name,
		Symbol:      body.Symbol,
		Description: body.Description,
		SessionID:   strings.TrimSpace(body.SessionID),
		Attributes:  attrs,
	})

	entry := oplog.Entry{Operation: domain.OpGenerateMetadata, SessionID: body.SessionID, Started: start, Err: err}
	if sess != nil {
		entry.SessionID = sess.ID
	}
	h.OpLog.Record(ctx, entry)

	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, generateMetadataResponse{
		MetadataURI:  pin.GatewayURI,
		MetadataHash: pin.IpfsHash,
		SessionID:    sess.ID,
	})
}

func (h *handler) uploadMetadata(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	file, err := h.readUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	sess, err := h.Metadata.UploadWithMetadata(ctx, file.data, file.filename, file.mimeType,
		r.FormValue("name"), r.FormValue("symbol"), r.FormValue("description"))

	entry := oplog.Entry{Operation: domain.OpUploadMetadata, Started: start, Err: err}
	if sess != nil {
		entry.SessionID = sess.ID
	}
	h.OpLog.Record(ctx, entry)

	if err != nil {
		writeError(w, err)
		return
	}

	resp := uploadMetadataResponse{
		ImageURI:  sess.Image.GatewayURI,
		IpfsHash:  sess.Image.IpfsHash,
		SessionID: sess.ID,
	}
	if sess.Metadata != nil {
		resp.MetadataURI = sess.Metadata.GatewayURI
		resp.MetadataHash = sess.Metadata.IpfsHash
	}
	writeJSON(w, http.StatusOK, resp)
}
