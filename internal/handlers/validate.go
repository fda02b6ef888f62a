package handlers

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"ecotrack/internal/models"
)

// Validation limits for form and API fields.
const (
	maxTitleLen    = 300
	maxExcerptLen  = 1_000
	maxBodyLen     = 100_000
	maxImageLen    = 500
	maxNameLen     = 100
	maxEmailLen    = 254
	maxCommentLen  = 2_000
	maxSubjectLen  = 200
	maxMessageLen  = 5_000
	maxResponseLen = 5_000
	minPasswordLen = 8
)

// validatePost checks post form inputs and returns the first error found.
func validatePost(p *models.BlogPost) string {
	title := strings.TrimSpace(p.Title)
	switch {
	case title == "":
		return "Title is required."
	case utf8.RuneCountInString(title) > maxTitleLen:
		return "Title is too long (max 300 characters)."
	case utf8.RuneCountInString(p.Excerpt) > maxExcerptLen:
		return "Excerpt is too long (max 1,000 characters)."
	case utf8.RuneCountInString(p.Content) > maxBodyLen:
		return "Content is too long (max 100,000 characters)."
	case utf8.RuneCountInString(p.Image) > maxImageLen:
		return "Image URL is too long."
	case utf8.RuneCountInString(p.Author) > maxNameLen:
		return "Author is too long (max 100 characters)."
	case !models.IsCategory(p.Category):
		return "Please choose a valid category."
	case !p.Status.Valid():
		return "Invalid status."
	}
	return ""
}

// validateComment checks a reader comment. Email is optional.
func validateComment(author, email, content string) string {
	author = strings.TrimSpace(author)
	content = strings.TrimSpace(content)
	switch {
	case author == "":
		return "Please enter your name."
	case utf8.RuneCountInString(author) > maxNameLen:
		return "Name is too long (max 100 characters)."
	case content == "":
		return "Please enter a comment."
	case utf8.RuneCountInString(content) > maxCommentLen:
		return "Comment is too long (max 2,000 characters)."
	case email != "" && !validEmail(email):
		return "Please enter a valid email address."
	}
	return ""
}

// validateTicket checks the fields shared by the contact form and the
// chatbot ticket API.
func validateTicket(t *models.SupportTicket) string {
	switch {
	case t.Name == "":
		return "Name is required."
	case utf8.RuneCountInString(t.Name) > maxNameLen*2:
		return "Name is too long."
	case t.Email == "":
		return "Email is required."
	case !validEmail(t.Email):
		return "Please enter a valid email address."
	case t.Subject == "":
		return "Subject is required."
	case utf8.RuneCountInString(t.Subject) > maxSubjectLen:
		return "Subject is too long (max 200 characters)."
	case t.Message == "":
		return "Message is required."
	case utf8.RuneCountInString(t.Message) > maxMessageLen:
		return "Message is too long (max 5,000 characters)."
	case utf8.RuneCountInString(t.Company) > maxNameLen*2:
		return "Company is too long."
	}
	return ""
}

// validateAccount checks the fields of a new admin account.
func validateAccount(name, email, password, confirm string, role models.Role) string {
	switch {
	case name == "":
		return "Name is required."
	case utf8.RuneCountInString(name) > maxNameLen:
		return "Name is too long (max 100 characters)."
	case !validEmail(email):
		return "Please enter a valid email address."
	case !role.Valid():
		return "Invalid role."
	}
	return validatePassword(password, confirm)
}

// validatePassword enforces the minimum length and the confirmation match.
func validatePassword(password, confirm string) string {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return "Password must be at least 8 characters."
	}
	if password != confirm {
		return "Passwords do not match."
	}
	return ""
}

// validEmail accepts a bare address like "name@example.com".
func validEmail(email string) bool {
	if email == "" || len(email) > maxEmailLen {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email, ".")
}
