package internal

import (
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// ImportFormat is a file layout subscription records can be read from.
type ImportFormat struct {
	Name string

	// Extensions are matched case-insensitively, including the dot (".json")
	Extensions []string

	Read func(path string) ([]SubscriptionInput, error)
}

var formats = map[string]ImportFormat{}

// RegisterFormat adds or replaces an import format.
func RegisterFormat(f ImportFormat) {
	formats[f.Name] = f
}

func LookupFormat(name string) (ImportFormat, error) {
	f, ok := formats[name]
	if !ok {
		return ImportFormat{}, fmt.Errorf("unknown import format: %q (available: %v)", name, AvailableFormats())
	}
	return f, nil
}

// AvailableFormats returns the registered format names, sorted
func AvailableFormats() []string {
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func IsKnownFormat(name string) bool {
	_, ok := formats[name]
	return ok
}

// ParseFileArg splits an optional "format:" prefix off an import argument.
// Anything before the first colon that is not a registered format stays part
// of the path, which keeps drive letters like "C:\subs.xlsx" intact.
func ParseFileArg(arg string) (format, path string) {
	prefix, rest, found := strings.Cut(arg, ":")
	if found && IsKnownFormat(prefix) {
		return prefix, rest
	}
	return "", arg
}

// FormatForPath picks the registered format claiming the file's extension.
func FormatForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return ""
	}
	for _, name := range AvailableFormats() {
		if slices.Contains(formats[name].Extensions, ext) {
			return name
		}
	}
	return ""
}

// ImportFile reads one import argument into validated subscriptions.
// The format comes from the "format:" prefix, then fallbackFormat, then the
// extension. Records without a currency get defaultCurrency.
func ImportFile(arg, fallbackFormat, defaultCurrency string) ([]Subscription, error) {
	name, path := ParseFileArg(arg)
	if name == "" {
		name = fallbackFormat
	}
	if name == "" {
		name = FormatForPath(path)
	}
	format, err := LookupFormat(name)
	if err != nil {
		return nil, err
	}

	inputs, err := format.Read(path)
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", path, err)
	}

	subs := make([]Subscription, 0, len(inputs))
	for i, in := range inputs {
		sub, err := in.Build(defaultCurrency)
		if err != nil {
			return nil, fmt.Errorf("%s entry %d: %w", path, i+1, err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func init() {
	RegisterFormat(ImportFormat{Name: "simple-json", Extensions: []string{".json"}, Read: ImportSimpleJSON})
	RegisterFormat(ImportFormat{Name: "xlsx", Extensions: []string{".xlsx"}, Read: ImportXLSX})
}
