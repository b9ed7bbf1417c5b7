package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/bunchhieng/uuidspace/internal/format"
	"github.com/bunchhieng/uuidspace/internal/log"
	"github.com/bunchhieng/uuidspace/internal/model"
	"github.com/bunchhieng/uuidspace/internal/search"
	"github.com/bunchhieng/uuidspace/internal/space"
	"github.com/bunchhieng/uuidspace/internal/storage"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

// Commands handles all CLI command execution.
type Commands struct {
	ctx     context.Context
	storage storage.Storage
	space   *space.Space
	search  search.Options
	out     io.Writer
}

// NewCommands creates a new Commands instance printing to out. Storage calls
// run under ctx and diagnostics go to its logger.
func NewCommands(ctx context.Context, s storage.Storage, sp *space.Space, opts search.Options, out io.Writer) *Commands {
	if ctx == nil {
		ctx = context.Background()
	}
	if out == nil {
		out = os.Stdout
	}
	return &Commands{ctx: ctx, storage: s, space: sp, search: opts, out: out}
}

// ParseIndex parses a decimal ordinal. "max" and negative offsets such as
// "-1" count back from the end of the space.
func ParseIndex(s string, sp *space.Space) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "max" {
		return sp.Max(), nil
	}
	i, ok := new(big.Int).SetString(strings.ReplaceAll(s, "_", ""), 10)
	if !ok {
		return nil, fmt.Errorf("invalid index: %s", s)
	}
	if i.Sign() < 0 {
		i.Add(i, sp.Size())
	}
	return i, nil
}

// Encode prints the identifier at an index.
func (c *Commands) Encode(index string) error {
	i, err := ParseIndex(index, c.space)
	if err != nil {
		return err
	}
	id, err := c.space.IndexToIdentifier(i)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	fmt.Fprintln(c.out, id)
	return nil
}

// Decode prints the index of an identifier.
func (c *Commands) Decode(identifier string) error {
	i, err := c.space.IdentifierToIndex(identifier)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	fmt.Fprintln(c.out, i.String())
	if c.space.Codec().Spec().Checksum == format.ChecksumLuhn {
		fmt.Fprintf(c.out, "%s%s%s\n", colorDim, format.IssuerCategory(identifier), colorReset)
	}
	return nil
}

// List prints count consecutive entries starting at from.
func (c *Commands) List(from string, count int) error {
	start, err := ParseIndex(from, c.space)
	if err != nil {
		return err
	}
	entries, err := c.space.Window(start, count)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	return c.printEntries(entries, nil)
}

// Search finds an identifier containing fragment near from, then steps
// next times forward and prev times back, printing every stop.
func (c *Commands) Search(fragment, from string, next, prev int) error {
	ref, err := ParseIndex(from, c.space)
	if err != nil {
		return err
	}
	engine := search.New(c.space, c.search)

	logger := log.Ctx(c.ctx)
	logger.Debug().Str(log.FieldFragment, fragment).Str(log.FieldReference, ref.String()).Msg("search")

	var results []search.Result
	res, err := engine.Search(fragment, search.View{Reference: ref})
	if err != nil {
		return c.searchError(fragment, err)
	}
	results = append(results, res)

	step := func(move func(search.View) (search.Result, error)) error {
		cur, _ := engine.Current()
		res, err := move(search.View{Reference: cur.Index})
		if err != nil {
			return c.searchError(fragment, err)
		}
		results = append(results, res)
		return nil
	}
	for i := 0; i < next; i++ {
		if err := step(engine.Next); err != nil {
			return err
		}
	}
	for i := 0; i < prev; i++ {
		if err := step(engine.Previous); err != nil {
			return err
		}
	}

	entries := make([]model.Entry, len(results))
	sources := make([]string, len(results))
	for i, r := range results {
		entries[i] = r.Entry
		sources[i] = r.Source.String()
		if r.Exhausted {
			sources[i] += " (exhausted)"
		}
	}
	return c.printEntries(entries, sources)
}

func (c *Commands) searchError(fragment string, err error) error {
	if errors.Is(err, model.ErrUnsatisfiableFragment) {
		return fmt.Errorf("%s%q%s cannot appear in a %s identifier (template %s)",
			colorBold, fragment, colorReset, c.space.Name(), c.space.Codec().Template())
	}
	return fmt.Errorf("search: %w", err)
}

// Formats prints the built-in formats.
func (c *Commands) Formats() error {
	rows := make([][]string, 0, len(format.Names()))
	for _, name := range format.Names() {
		spec, err := format.Lookup(name)
		if err != nil {
			return err
		}
		codec, err := format.NewCodec(spec)
		if err != nil {
			return fmt.Errorf("format %s: %w", name, err)
		}
		marker := ""
		if name == c.space.Name() {
			marker = "*"
		}
		rows = append(rows, []string{
			marker + name,
			codec.Template(),
			fmt.Sprintf("2^%d", spec.Width),
			spec.Summary,
		})
	}
	return printTable(c.out, []column{
		{title: "NAME", color: colorBold + colorCyan},
		{title: "TEMPLATE", color: colorCyan},
		{title: "SIZE", color: colorDim},
		{title: "SUMMARY", max: 50},
	}, rows)
}

// FavAdd stars an identifier of the current format.
func (c *Commands) FavAdd(identifier, note string) error {
	i, err := c.space.IdentifierToIndex(identifier)
	if err != nil {
		return fmt.Errorf("star: %w", err)
	}
	fav, err := c.storage.Add(c.ctx, &model.Favorite{
		Identifier: identifier,
		Format:     c.space.Name(),
		Index:      i.String(),
		Note:       note,
	})
	if errors.Is(err, model.ErrDuplicate) {
		fmt.Fprintf(c.out, "%sAlready starred%s %s%s%s\n", colorYellow, colorReset, colorBold, strings.ToLower(identifier), colorReset)
		return nil
	}
	if err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	fmt.Fprintf(c.out, "%sStarred%s %s%s%s at index %s%s%s\n", colorGreen, colorReset, colorBold, fav.Identifier, colorReset, colorCyan, fav.Index, colorReset)
	return nil
}

// FavRemove unstars one or more identifiers.
func (c *Commands) FavRemove(identifiers ...string) error {
	if len(identifiers) == 0 {
		return fmt.Errorf("at least one identifier required")
	}

	var removed, failed []string
	for _, id := range identifiers {
		err := c.storage.Remove(c.ctx, id)
		switch {
		case err == nil:
			removed = append(removed, id)
		case errors.Is(err, model.ErrNotFound):
			msg := fmt.Sprintf("%s (not starred)", id)
			if suggestion := c.suggestFavorite(id); suggestion != "" {
				msg += fmt.Sprintf(" - %sDid you mean:%s %s%s%s?", colorYellow, colorReset, colorBold, suggestion, colorReset)
			}
			failed = append(failed, msg)
		default:
			failed = append(failed, fmt.Sprintf("%s (%v)", id, err))
		}
	}

	if len(removed) == 1 {
		fmt.Fprintf(c.out, "%sUnstarred%s %s%s%s.\n", colorRed, colorReset, colorBold, removed[0], colorReset)
	} else if len(removed) > 1 {
		fmt.Fprintf(c.out, "%sUnstarred%s %d identifier(s): %s%s%s\n", colorRed, colorReset, len(removed), colorBold, strings.Join(removed, ", "), colorReset)
	}

	if len(failed) > 0 {
		return fmt.Errorf("failed to unstar: %s", strings.Join(failed, ", "))
	}
	return nil
}

// FavList prints favorites, optionally only those of one format.
func (c *Commands) FavList(formatName string, limit int) error {
	favs, err := c.storage.List(c.ctx, storage.ListOptions{Format: formatName, Limit: limit})
	if err != nil {
		return fmt.Errorf("list favorites: %w", err)
	}
	if len(favs) == 0 {
		fmt.Fprintln(c.out, "No favorites yet.")
		return nil
	}
	return printFavoritesTable(c.out, favs)
}

// Export writes all favorites as JSON.
func (c *Commands) Export(w io.Writer) error {
	favs, err := c.storage.Export(c.ctx)
	if err != nil {
		return fmt.Errorf("export favorites: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(favs); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// Import reads favorites from a JSON file written by Export.
func (c *Commands) Import(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	var favs []*model.Favorite
	if err := json.NewDecoder(file).Decode(&favs); err != nil {
		return fmt.Errorf("decode JSON: %w", err)
	}

	added, err := c.storage.Import(c.ctx, favs)
	if err != nil {
		return fmt.Errorf("import favorites: %w", err)
	}
	logger := log.Ctx(c.ctx)
	logger.Info().Int("added", added).Int("read", len(favs)).Msg("favorites imported")
	fmt.Fprintf(c.out, "%sImported%s %s%d%s new favorite(s) of %d.\n", colorGreen, colorReset, colorBold, added, colorReset, len(favs))
	return nil
}

// Version prints the version.
func (c *Commands) Version(version string) {
	fmt.Fprintf(c.out, "uuidspace version %s\n", version)
}

// suggestFavorite returns the closest starred identifier, if any is close.
func (c *Commands) suggestFavorite(id string) string {
	favs, err := c.storage.List(c.ctx, storage.ListOptions{})
	if err != nil || len(favs) == 0 {
		return ""
	}

	id = strings.ToLower(id)
	bestMatch := ""
	minDistance := 4
	for _, fav := range favs {
		if d := levenshteinDistance(id, fav.Identifier); d < minDistance {
			minDistance = d
			bestMatch = fav.Identifier
		}
	}
	return bestMatch
}

func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	cur := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(s1); i++ {
		cur[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(s2)]
}

func (c *Commands) printEntries(entries []model.Entry, sources []string) error {
	starred := make(map[string]bool)
	if c.storage != nil {
		for _, e := range entries {
			if ok, err := c.storage.Has(c.ctx, e.Identifier); err == nil && ok {
				starred[e.Identifier] = true
			}
		}
	}

	cols := []column{
		{title: "INDEX", color: colorDim, align: alignRight},
		{title: "IDENTIFIER", color: colorBold + colorCyan},
		{title: "★", color: colorYellow},
	}
	if sources != nil {
		cols = append(cols, column{title: "SOURCE", color: colorDim})
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		star := ""
		if starred[e.Identifier] {
			star = "★"
		}
		rows[i] = []string{e.Index.String(), e.Identifier, star}
		if sources != nil {
			rows[i] = append(rows[i], sources[i])
		}
	}
	return printTable(c.out, cols, rows)
}
