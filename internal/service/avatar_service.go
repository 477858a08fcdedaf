package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"go-contacts-api/internal/model"
	"go-contacts-api/pkg/apierror"
)

const avatarSize = 250

// AvatarService processes an uploaded image into a square avatar, stores it
// and records the public URL on the user.
type AvatarService struct {
	storage AvatarStorage
	store   UserStore
}

func NewAvatarService(storage AvatarStorage, store UserStore) *AvatarService {
	return &AvatarService{storage: storage, store: store}
}

func (s *AvatarService) UpdateAvatar(ctx context.Context, user *model.PublicUser, reader io.Reader) (*model.PublicUser, error) {
	src, _, err := image.Decode(reader)
	if err != nil {
		return nil, apierror.New("UNSUPPORTED_TYPE", "cannot decode image", err.Error(), http.StatusUnsupportedMediaType)
	}

	bounds := src.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, apierror.New("UNSUPPORTED_TYPE", "invalid image dimensions", "", http.StatusUnsupportedMediaType)
	}

	avatar := scaleAvatar(src, bounds)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, avatar, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}

	key := fmt.Sprintf("avatars/%s.jpg", strings.ToLower(user.Username))
	url, err := s.storage.Store(ctx, key, buf.Bytes(), "image/jpeg")
	if err != nil {
		return nil, fmt.Errorf("store avatar: %w", err)
	}

	updated, err := s.store.SetAvatar(ctx, user.Email, url)
	if err != nil {
		return nil, err
	}

	snap := updated.Public()
	return &snap, nil
}

// scaleAvatar center-crops the source to a square and scales it to
// avatarSize x avatarSize.
func scaleAvatar(src image.Image, bounds image.Rectangle) *image.RGBA {
	crop := bounds
	if bounds.Dx() > bounds.Dy() {
		margin := (bounds.Dx() - bounds.Dy()) / 2
		crop = image.Rect(bounds.Min.X+margin, bounds.Min.Y, bounds.Min.X+margin+bounds.Dy(), bounds.Max.Y)
	} else if bounds.Dy() > bounds.Dx() {
		margin := (bounds.Dy() - bounds.Dx()) / 2
		crop = image.Rect(bounds.Min.X, bounds.Min.Y+margin, bounds.Max.X, bounds.Min.Y+margin+bounds.Dx())
	}

	dst := image.NewRGBA(image.Rect(0, 0, avatarSize, avatarSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Over, nil)
	return dst
}
