package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/community-api/internal/constants"
	apierrors "github.com/yukikurage/community-api/internal/errors"
	"github.com/yukikurage/community-api/internal/services"
	"github.com/yukikurage/community-api/internal/storage"
)

// respondError maps a service error kind to its HTTP response. Internal
// causes are attached to the context for the request logger only.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.AlreadyExists(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c, err.Error())
	case errors.Is(err, services.ErrCommunityRequired):
		apierrors.MembershipRequired(c, err.Error())
	case isUploadError(err):
		respondUploadError(c, err)
	case errors.Is(err, services.ErrInternal):
		_ = c.Error(err)
		apierrors.InternalError(c, "")
	case errors.Is(err, services.ErrValidation):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		apierrors.Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrForbidden):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrConflict):
		apierrors.Conflict(c, err.Error())
	default:
		_ = c.Error(err)
		apierrors.InternalError(c, "")
	}
}

// bindJSON decodes the request body into req. On failure it responds with
// message and the failing fields, or INVALID_FORMAT for unparsable JSON.
func bindJSON(c *gin.Context, req any, message string) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	var fieldErrs validator.ValidationErrors
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &fieldErrs):
		apierrors.BadRequestWithDetails(c, message, gin.H{"fields": fieldNames(fieldErrs)})
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		apierrors.InvalidFormat(c, "Request body is not valid JSON")
	default:
		apierrors.BadRequest(c, message)
	}
	return false
}

// fieldNames lists failing fields under their JSON names.
func fieldNames(errs validator.ValidationErrors) []string {
	names := make([]string, 0, len(errs))
	for _, fe := range errs {
		name := fe.Field()
		r, size := utf8.DecodeRuneInString(name)
		names = append(names, string(unicode.ToLower(r))+name[size:])
	}
	return names
}

func isUploadError(err error) bool {
	return errors.Is(err, storage.ErrNoFile) ||
		errors.Is(err, storage.ErrTooManyFiles) ||
		errors.Is(err, storage.ErrImageTooLarge) ||
		errors.Is(err, storage.ErrUnsupportedImageType)
}

// respondUploadError gives each upload rejection its own code.
func respondUploadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrImageTooLarge):
		apierrors.Upload(c, http.StatusRequestEntityTooLarge, apierrors.ErrCodeFileTooLarge, "File is too large. Maximum size is 5MB")
	case errors.Is(err, storage.ErrTooManyFiles):
		apierrors.Upload(c, http.StatusBadRequest, apierrors.ErrCodeTooManyFiles, "Only one file can be uploaded at a time")
	case errors.Is(err, storage.ErrUnsupportedImageType):
		apierrors.Upload(c, http.StatusBadRequest, apierrors.ErrCodeUnsupportedMedia, "Only image files are allowed")
	case errors.Is(err, storage.ErrNoFile):
		apierrors.Upload(c, http.StatusBadRequest, apierrors.ErrCodeNoFile, "No file uploaded")
	default:
		_ = c.Error(err)
		apierrors.BadRequest(c, "Invalid upload")
	}
}

// readUpload parses a multipart body with a single image in field.
func readUpload(c *gin.Context, field string) ([]byte, error) {
	// Leave room for multipart framing around the file itself.
	limit := int64(constants.MaxUploadSize + 1<<20)
	if c.Request.ContentLength > limit {
		return nil, storage.ErrImageTooLarge
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, storage.ErrImageTooLarge
		}
		return nil, storage.ErrNoFile
	}
	return storage.ReadSingleFile(form, field, constants.MaxUploadSize)
}

// parseIDParam reads a positive numeric path parameter, answering 400 when
// it is malformed.
func parseIDParam(c *gin.Context, name, label string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, "Invalid "+label)
		return 0, false
	}
	return id, true
}

// parseIDList parses a comma separated list of ids from the query string.
func parseIDList(raw string) ([]uint64, error) {
	var ids []uint64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
