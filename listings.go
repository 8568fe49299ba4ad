package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"lapak/models"
	"lapak/pkg/imagestore"
	"lapak/pkg/listing"
	"lapak/pkg/safeurl"
)

const maxImageBytes = 5 << 20 // 5MB upload cap

var (
	listings *listing.Service
	images   imagestore.Store
)

// errImageStore marks storage-side failures so the handler can answer 500
// instead of blaming the upload.
var errImageStore = errors.New("image store failed")

func initListings() {
	listings = listing.NewService(listing.NewStore(db))
}

func initImageStore(cfg Config) {
	if cfg.S3.Bucket == "" {
		local, err := imagestore.NewLocalStore(cfg.UploadBase)
		if err != nil {
			log.Fatalf("init local image store: %v", err)
		}
		images = local
		return
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithBaseEndpoint(cfg.S3.Endpoint),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		log.Fatalf("init s3 config: %v", err)
	}
	store, err := imagestore.NewS3Store(s3.NewFromConfig(awsCfg), cfg.S3.Bucket, cfg.S3.PublicBaseURL)
	if err != nil {
		log.Fatalf("init s3 image store: %v", err)
	}
	images = store
}

type listingResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Location    string    `json:"location"`
	PublishedAt time.Time `json:"published_at"`
}

func toListingResponse(l models.Listing) listingResponse {
	return listingResponse{
		ID:          l.ID,
		Name:        l.Name,
		Price:       l.Price,
		Description: l.Description,
		Image:       l.ImageURL,
		Location:    l.Location,
		PublishedAt: l.PublishedAt,
	}
}

// recentFeedHandler serves the public feed: the ten most recent listings,
// newest first.
func recentFeedHandler(c *gin.Context) {
	items, err := listings.RecentFeed()
	if err != nil {
		slog.Error("recent feed query failed", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": lo.Map(items, func(l models.Listing, _ int) listingResponse {
		return toListingResponse(l)
	})})
}

func getListingHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	l, err := listings.Get(uint(id))
	if err != nil {
		writeListingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing": toListingResponse(*l)})
}

// createListingHandler accepts a multipart or urlencoded form so an image
// can ride along with the fields.
func createListingHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	// no binding:"required" here: absent or zero fields fall through to the
	// store validator so the error names the offending field
	var req struct {
		Name        string  `form:"name"`
		Price       float64 `form:"price"`
		Description string  `form:"description"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	imageURL, err := saveListingImage(c)
	if err != nil {
		if errors.Is(err, errImageStore) {
			slog.Error("image upload failed", slog.Any("err", err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "image upload failed"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	l, err := listings.Create(user.ID, listing.CreateInput{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		ImageURL:    imageURL,
	})
	if err != nil {
		writeListingError(c, err)
		return
	}
	target := resolveRedirect(c, "/listings/"+strconv.FormatUint(uint64(l.ID), 10))
	c.Header("Location", target)
	c.JSON(http.StatusCreated, gin.H{"id": l.ID})
}

// saveListingImage stores the optional "image" form file and returns its
// reference. An absent file yields "" so the caller falls back to the
// placeholder.
func saveListingImage(c *gin.Context) (string, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return "", nil // no image attached
	}
	f, err := fh.Open()
	if err != nil {
		return "", errors.New("image unreadable")
	}
	defer f.Close()
	data, err := io.ReadAll(imagestore.NewMaxSizeReader(f, maxImageBytes))
	if err != nil {
		var tooLarge *imagestore.TooLargeError
		if errors.As(err, &tooLarge) {
			return "", errors.New("image too large (max 5MB)")
		}
		return "", errors.New("image unreadable")
	}
	mimeType := http.DetectContentType(data)
	ext, ok := imagestore.AllowedType(mimeType)
	if !ok {
		return "", errors.New("unsupported image type")
	}
	normalized, err := imagestore.Normalize(data, mimeType)
	if err != nil {
		return "", errors.New("invalid image data")
	}
	name := uuid.New().String() + "." + ext
	ref, err := images.Save(c.Request.Context(), name, mimeType, normalized)
	if err != nil {
		return "", errors.Join(errImageStore, err)
	}
	return ref, nil
}

func editListingHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	var req struct {
		Name        *string  `json:"name" form:"name"`
		Price       *float64 `json:"price" form:"price"`
		Description *string  `json:"description" form:"description"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	upd := listing.Update{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
	}
	// a multipart PUT may carry a replacement image
	imageURL, err := saveListingImage(c)
	if err != nil {
		if errors.Is(err, errImageStore) {
			slog.Error("image upload failed", slog.Any("err", err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "image upload failed"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if imageURL != "" {
		upd.ImageURL = &imageURL
	}
	l, err := listings.Edit(uint(id), user.ID, upd)
	if err != nil {
		writeListingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"listing":  toListingResponse(*l),
		"redirect": resolveRedirect(c, "/my_listings"),
	})
}

func deleteListingHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err := listings.Delete(uint(id), user.ID); err != nil {
		writeListingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "listing deleted",
		"redirect": resolveRedirect(c, "/my_listings"),
	})
}

func myListingsHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	items, err := listings.MyListings(user.ID)
	if err != nil {
		slog.Error("my listings query failed", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": lo.Map(items, func(l models.Listing, _ int) listingResponse {
		return toListingResponse(l)
	})})
}

// writeListingError maps service errors to responses. A foreign listing gets
// the same 404 as a missing one so ownership cannot be probed.
func writeListingError(c *gin.Context, err error) {
	var verr *listing.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, listing.ErrProfileMissing):
		c.JSON(http.StatusBadRequest, gin.H{"error": "seller profile missing"})
	case errors.Is(err, listing.ErrNotFound), errors.Is(err, listing.ErrNotOwner):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		slog.Error("listing operation failed", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// resolveRedirect returns the caller-supplied next target when the current
// redirect policy approves it, otherwise the fallback. Unparseable or
// off-policy values fail closed.
func resolveRedirect(c *gin.Context, fallback string) string {
	next := c.Query("next")
	if next == "" {
		next = c.PostForm("next")
	}
	if next == "" {
		return fallback
	}
	policy := currentRedirectPolicy()
	if safeurl.IsSafe(next, policy.AllowedHosts, policy.RequireHTTPS) {
		return next
	}
	return fallback
}
