package convert

import (
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"rtdoc/config"
	"rtdoc/document"
	"rtdoc/state"
)

// buildOutputPath returns output file name for document read from src (path
// relative to the walked directory or archive). Name comes either from source
// name or from configured template, source directory structure is kept unless
// NoDirs is set. Every path segment is cleaned and, if requested,
// transliterated.
func buildOutputPath(doc *document.Document, src, dst string, env *state.LocalEnv) string {
	outDir := determineOutputDir(src, dst, env)
	defaultFile := buildDefaultFileName(src, env)

	if env.Cfg.Document.OutputNameTemplate == "" {
		return filepath.Join(outDir, defaultFile)
	}

	expanded := expandOutputNameTemplate(doc, src, env)
	segments := splitPath(expanded)
	if len(segments) == 0 {
		// fallback to default name if template expansion failed
		return filepath.Join(outDir, defaultFile)
	}

	// template decides about directories on its own
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, dst)
	for _, s := range segments[:len(segments)-1] {
		parts = append(parts, cleanPathSegment(s, env))
	}
	parts = append(parts, cleanPathSegment(segments[len(segments)-1], env)+env.Cfg.Document.OutputExtension)
	return filepath.Join(parts...)
}

func determineOutputDir(src, dst string, env *state.LocalEnv) string {
	if env.NoDirs {
		return dst
	}
	return filepath.Join(dst, filepath.Dir(src))
}

func buildDefaultFileName(src string, env *state.LocalEnv) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return cleanPathSegment(base, env) + env.Cfg.Document.OutputExtension
}

func expandOutputNameTemplate(doc *document.Document, src string, env *state.LocalEnv) string {
	expanded, err := expandTemplate(doc, src, config.OutputNameTemplateFieldName, env.Cfg.Document.OutputNameTemplate)
	if err != nil {
		env.Log.Warn("Unable to prepare output filename", zap.Error(err))
		return ""
	}
	return expanded
}

// splitPath breaks template result on either separator dropping empty and
// relative segments.
func splitPath(path string) []string {
	segments := strings.FieldsFunc(filepath.ToSlash(path), func(r rune) bool { return r == '/' })
	out := segments[:0]
	for _, s := range segments {
		s = strings.TrimSpace(s)
		if s == "" || s == "." || s == ".." {
			continue
		}
		out = append(out, s)
	}
	return out
}

func cleanPathSegment(segment string, env *state.LocalEnv) string {
	if env.Cfg.Document.FileNameTransliterate {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
