package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"quill/internal/models"
	"quill/internal/richtext"
	"quill/internal/storage"
)

const (
	// maxImageSize bounds an uploaded post image.
	maxImageSize = 10 << 20

	// MaxUploadBody bounds a whole post form submission. The router caps
	// request bodies at this size.
	MaxUploadBody = maxImageSize + 1<<20

	// multipartMemory is how much of a form is buffered before spilling to disk.
	multipartMemory = 1 << 20
)

// postForm holds the submitted (or pre-filled) values of the post editor.
// Field names are used directly by the post_form template.
type postForm struct {
	Title     string
	Content   string
	Category  string
	Tags      string
	Published bool
	Image     *string // current image key when editing
}

// newPostForm pre-fills the editor from an existing post.
func newPostForm(p *models.Post) postForm {
	f := postForm{
		Title:     p.Title,
		Content:   p.Content,
		Tags:      formatTags(p.TagNames()),
		Published: p.Published,
		Image:     p.Image,
	}
	if p.CategoryID != nil {
		f.Category = p.CategoryID.String()
	}
	return f
}

// imageUpload is a validated image read from the form.
type imageUpload struct {
	contentType string
	data        []byte
}

// postInput is a parsed submission: raw values for re-rendering, the
// cleaned values to store, and field errors.
type postInput struct {
	form       postForm
	content    string
	categoryID *uuid.UUID
	tags       []string
	image      *imageUpload
	errors     map[string]string
}

// valid reports whether the submission had no field errors.
func (in *postInput) valid() bool {
	return len(in.errors) == 0
}

// parsePostForm reads and validates the post editor fields. Category
// existence is checked separately because it needs the repository.
func parsePostForm(r *http.Request) *postInput {
	in := &postInput{errors: make(map[string]string)}

	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			in.errors["image"] = "The submitted file is too large (max 10 MB)."
		} else {
			in.errors["image"] = "The submitted form could not be read."
		}
		return in
	}

	in.form = postForm{
		Title:     strings.TrimSpace(r.FormValue("title")),
		Content:   r.FormValue("content"),
		Category:  strings.TrimSpace(r.FormValue("category")),
		Tags:      r.FormValue("tags"),
		Published: r.FormValue("published") != "",
	}

	if msg := validateTitle(in.form.Title); msg != "" {
		in.errors["title"] = msg
	}

	in.content = richtext.Sanitize(in.form.Content)
	if richtext.IsBlank(in.content) {
		in.errors["content"] = msgRequired
	}

	if in.form.Category != "" {
		id, err := uuid.Parse(in.form.Category)
		if err != nil {
			in.errors["category"] = msgInvalidChoice
		} else {
			in.categoryID = &id
		}
	}

	tags, msg := parseTags(in.form.Tags)
	if msg != "" {
		in.errors["tags"] = msg
	}
	in.tags = tags

	img, msg := readImage(r)
	if msg != "" {
		in.errors["image"] = msg
	}
	in.image = img

	return in
}

const msgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."

// readImage returns the uploaded image, nil when none was sent, or an
// error message when the file is not an acceptable image.
func readImage(r *http.Request) (*imageUpload, string) {
	file, _, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, ""
	}
	if err != nil {
		return nil, "The submitted file could not be read."
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
	if err != nil {
		return nil, "The submitted file could not be read."
	}
	if len(data) == 0 {
		return nil, "The submitted file is empty."
	}
	if len(data) > maxImageSize {
		return nil, fmt.Sprintf("The submitted file is too large (max %d MB).", maxImageSize>>20)
	}

	contentType := http.DetectContentType(data)
	if !storage.Supported(contentType) {
		return nil, "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	}
	return &imageUpload{contentType: contentType, data: data}, ""
}

// apply copies the cleaned values onto p.
func (in *postInput) apply(p *models.Post) {
	p.Title = in.form.Title
	p.Content = in.content
	p.CategoryID = in.categoryID
	p.Published = in.form.Published
	p.Tags = make([]models.Tag, 0, len(in.tags))
	for _, name := range in.tags {
		p.Tags = append(p.Tags, models.Tag{Name: name})
	}
}
