package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"botshop/models"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// identifierPattern is the shape of product and variant ids
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// inputValidator returns the shared validator with the custom tags registered
func inputValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		mustRegister(v, "identifier", func(fl validator.FieldLevel) bool {
			return identifierPattern.MatchString(fl.Field().String())
		})
		mustRegister(v, "snowflake", func(fl validator.FieldLevel) bool {
			return models.IsSnowflake(fl.Field().String())
		})
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("failed to register %s validation: %v", tag, err))
	}
}

// IsIdentifier reports whether s is a valid product or variant id
func IsIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// validateInput checks an input struct and maps the first failure to a domain error
func validateInput(input any) error {
	err := inputValidator().Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	fe := verrs[0]
	ns := fe.StructNamespace()
	switch {
	case ns == "VariantInput.ID", strings.Contains(ns, ".Variants[") && strings.HasSuffix(ns, "].ID"):
		return fmt.Errorf("%w: %q", ErrInvalidVariantID, fe.Value())
	case ns == "ProductInput.ID":
		return fmt.Errorf("%w: %q", ErrInvalidProductID, fe.Value())
	case strings.HasSuffix(ns, "DiscordUserID"):
		return fmt.Errorf("%w: %q", ErrInvalidDiscordID, fe.Value())
	}
	return fmt.Errorf("%w: %s failed on %s", ErrInvalidInput, fe.Namespace(), fe.Tag())
}

// pixKeyTypes are the PIX key kinds a payout may use
var pixKeyTypes = map[string]bool{
	"cpf":    true,
	"cnpj":   true,
	"email":  true,
	"phone":  true,
	"random": true,
}

// normalizePixKey trims a PIX destination and checks its type
func normalizePixKey(pixKey, pixKeyType string) (string, string, error) {
	pixKey = strings.TrimSpace(pixKey)
	if pixKey == "" {
		return "", "", ErrPixKeyRequired
	}
	pixKeyType = strings.ToLower(strings.TrimSpace(pixKeyType))
	if !pixKeyTypes[pixKeyType] {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPixKeyType, pixKeyType)
	}
	return pixKey, pixKeyType, nil
}

// Slugify derives an identifier from a display name: accents are stripped,
// letters lowercased, and runs of anything else collapsed into a dash
func Slugify(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if b.Len() > 0 && !dash {
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.TrimRight(b.String(), "-")
	if len(slug) > 64 {
		slug = strings.TrimRight(slug[:64], "-")
	}
	return slug
}
