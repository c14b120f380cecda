package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
)

var ErrUnsupportedPhotoType = errors.New("unsupported photo content type")

// maxPhotoBytes caps profile photo uploads at 5 MiB.
const maxPhotoBytes = 5 << 20

var allowedPhotoTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// PhotoStorage stores member and trainer profile photos and returns
// publicly reachable URLs.
type PhotoStorage interface {
	UploadPhoto(ctx context.Context, file multipart.File, objectName string, folder string) (string, error)
	DeletePhoto(ctx context.Context, photoURL string) error
	SignedPhotoURL(ctx context.Context, photoURL string) (string, error)
}

type SupabaseStorage struct {
	baseURL    string
	bucket     string
	serviceKey string
	httpClient *http.Client
}

func NewSupabaseStorage(baseURL, bucket, serviceKey string) *SupabaseStorage {
	return &SupabaseStorage{
		baseURL:    strings.TrimRight(baseURL, "/"),
		bucket:     bucket,
		serviceKey: serviceKey,
		httpClient: http.DefaultClient,
	}
}

// UploadPhoto pushes the image to the bucket under folder/objectName and
// returns the public URL. The stored object name gets an extension matching
// the sniffed content type, so callers may pass a bare identifier.
func (s *SupabaseStorage) UploadPhoto(ctx context.Context, file multipart.File, objectName string, folder string) (string, error) {
	content, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(content) > maxPhotoBytes {
		return "", fmt.Errorf("photo exceeds %d byte limit", maxPhotoBytes)
	}

	contentType := http.DetectContentType(content)
	ext, ok := allowedPhotoTypes[contentType]
	if !ok {
		return "", ErrUnsupportedPhotoType
	}
	if !strings.HasSuffix(objectName, ext) {
		objectName += ext
	}

	objectPath := path.Join(strings.Trim(folder, "/"), objectName)
	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, objectPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	s.authorize(req)
	req.Header.Set("x-upsert", "true")
	req.Header.Set("Content-Type", contentType)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}
	defer resp.Body.Close()

	if err := responseError(resp); err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, objectPath), nil
}

func (s *SupabaseStorage) DeletePhoto(ctx context.Context, photoURL string) error {
	objectPath, err := s.objectPathFromURL(photoURL)
	if err != nil {
		return err
	}

	deleteURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, objectPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, deleteURL, nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	s.authorize(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	defer resp.Body.Close()

	// An already-removed object is not an error for callers.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if err := responseError(resp); err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}

// SignedPhotoURL exchanges a bucket URL for a short-lived signed link, for
// buckets that are not public.
func (s *SupabaseStorage) SignedPhotoURL(ctx context.Context, photoURL string) (string, error) {
	objectPath, err := s.objectPathFromURL(photoURL)
	if err != nil {
		return "", err
	}

	signURL := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", s.baseURL, s.bucket, objectPath)
	body, err := json.Marshal(map[string]int{"expiresIn": 3600})
	if err != nil {
		return "", fmt.Errorf("marshal sign payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, signURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build sign request: %w", err)
	}
	s.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sign photo url: %w", err)
	}
	defer resp.Body.Close()

	if err := responseError(resp); err != nil {
		return "", fmt.Errorf("sign photo url: %w", err)
	}

	var response struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("decode sign response: %w", err)
	}
	if response.SignedURL == "" {
		return "", fmt.Errorf("signed url missing from response")
	}

	return fmt.Sprintf("%s/storage/v1%s", s.baseURL, response.SignedURL), nil
}

func (s *SupabaseStorage) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("apikey", s.serviceKey)
}

func responseError(resp *http.Response) error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

func (s *SupabaseStorage) objectPathFromURL(photoURL string) (string, error) {
	parsed, err := url.Parse(photoURL)
	if err != nil {
		return "", fmt.Errorf("parse photo url: %w", err)
	}

	publicPrefix := "/storage/v1/object/public/" + s.bucket + "/"
	objectPrefix := "/storage/v1/object/" + s.bucket + "/"

	switch {
	case strings.HasPrefix(parsed.Path, publicPrefix):
		return strings.TrimPrefix(parsed.Path, publicPrefix), nil
	case strings.HasPrefix(parsed.Path, objectPrefix):
		return strings.TrimPrefix(parsed.Path, objectPrefix), nil
	default:
		return "", fmt.Errorf("photo url does not belong to configured bucket")
	}
}
