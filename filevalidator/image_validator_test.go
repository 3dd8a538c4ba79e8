package filevalidator

import (
	"bytes"
	"strings"
	"testing"
)

func TestImageValidator_ReadConfig(t *testing.T) {
	validator := DefaultImageValidator()

	tests := []struct {
		name       string
		format     string
		width      int
		height     int
		wantFormat string
	}{
		{name: "JPEG", format: "jpeg", width: 20, height: 30, wantFormat: "jpeg"},
		{name: "PNG", format: "png", width: 25, height: 25, wantFormat: "png"},
		{name: "GIF", format: "gif", width: 25, height: 40, wantFormat: "gif"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := encodeImage(t, tt.format, tt.width, tt.height)

			cfg, format, err := validator.ReadConfig(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if format != tt.wantFormat {
				t.Errorf("Expected format %s, got %s", tt.wantFormat, format)
			}
			if cfg.Width != tt.width || cfg.Height != tt.height {
				t.Errorf("Expected %dx%d, got %dx%d", tt.width, tt.height, cfg.Width, cfg.Height)
			}
		})
	}

	t.Run("not an image", func(t *testing.T) {
		_, _, err := validator.ReadConfig(strings.NewReader("not an image"))
		if !IsErrorOfType(err, ErrorTypeContent) {
			t.Errorf("Expected content validation error, got: %v", err)
		}
	})

	t.Run("truncated after header", func(t *testing.T) {
		data := encodeImage(t, "png", 10, 10)
		_, _, err := validator.ReadConfig(bytes.NewReader(data[:12]))
		if err == nil {
			t.Error("Expected error for truncated PNG, got nil")
		}
	})
}

func TestImageValidator_ValidateContent(t *testing.T) {
	tests := []struct {
		name      string
		validator *ImageValidator
		width     int
		height    int
		wantType  ValidationErrorType
		errorMsg  string
	}{
		{
			name:      "no limits",
			validator: DefaultImageValidator(),
			width:     50,
			height:    50,
		},
		{
			name:      "image too wide",
			validator: &ImageValidator{MaxWidth: 40},
			width:     41,
			height:    10,
			wantType:  ErrorTypeDimensions,
			errorMsg:  "width 41 exceeds maximum 40",
		},
		{
			name:      "image too tall",
			validator: &ImageValidator{MaxHeight: 40},
			width:     10,
			height:    41,
			wantType:  ErrorTypeDimensions,
			errorMsg:  "height 41 exceeds maximum 40",
		},
		{
			name:      "too many pixels",
			validator: &ImageValidator{MaxPixels: 99},
			width:     10,
			height:    10,
			wantType:  ErrorTypeDimensions,
			errorMsg:  "total pixels 100",
		},
		{
			name:      "below minimum width",
			validator: &ImageValidator{MinWidth: 16},
			width:     8,
			height:    32,
			wantType:  ErrorTypeDimensions,
			errorMsg:  "below minimum",
		},
		{
			name:      "file too big",
			validator: &ImageValidator{MaxFileSize: 10},
			width:     10,
			height:    10,
			wantType:  ErrorTypeSize,
			errorMsg:  "exceeds maximum 10 B",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := encodeImage(t, "png", tt.width, tt.height)
			err := tt.validator.ValidateContent(bytes.NewReader(data), int64(len(data)))

			if tt.wantType == "" {
				if err != nil {
					t.Errorf("Expected no error, got: %v", err)
				}
				return
			}

			if !IsErrorOfType(err, tt.wantType) {
				t.Fatalf("Expected %s error, got: %v", tt.wantType, err)
			}
			if !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("Expected error containing '%s', got: %v", tt.errorMsg, err)
			}
		})
	}
}

func TestImageValidator_Decode(t *testing.T) {
	validator := DefaultImageValidator()

	for _, format := range []string{"jpeg", "png", "gif"} {
		t.Run(format, func(t *testing.T) {
			data := encodeImage(t, format, 12, 7)

			img, err := validator.Decode(bytes.NewReader(data), format)
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			bounds := img.Bounds()
			if bounds.Dx() != 12 || bounds.Dy() != 7 {
				t.Errorf("Expected 12x7, got %dx%d", bounds.Dx(), bounds.Dy())
			}
		})
	}

	t.Run("format mismatch", func(t *testing.T) {
		data := encodeImage(t, "gif", 4, 4)
		_, err := validator.Decode(bytes.NewReader(data), "png")
		if !IsErrorOfType(err, ErrorTypeContent) {
			t.Errorf("Expected content validation error, got: %v", err)
		}
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, err := validator.Decode(bytes.NewReader(nil), "bmp")
		if !IsErrorOfType(err, ErrorTypeMIME) {
			t.Errorf("Expected MIME validation error, got: %v", err)
		}
	})
}
