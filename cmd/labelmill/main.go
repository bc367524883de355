package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"labelmill/internal"
	"labelmill/internal/config"
	"labelmill/internal/history"
	"labelmill/internal/importer"
	"labelmill/internal/mapper"
	"labelmill/internal/render"
	"labelmill/internal/shaping"
	"labelmill/internal/store"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	log, err := zap.NewProduction()
	must(err)
	defer func() { _ = log.Sync() }()

	st := store.New(cfg.StorePath, log)

	cmd := os.Args[1]
	switch cmd {
	case "import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "workbook or html file to import")
		sheet := fs.String("sheet", "", "sheet name (first sheet when empty)")
		fresh, legacy := modeFlags(fs)
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--file is required"))
		}
		mode := pickMode(*fresh, *legacy, cfg)
		count, err := importFile(cfg, st, log, *file, *sheet, mode)
		must(err)
		fmt.Printf("import done file=%s mode=%s rows=%d\n", *file, mode, count)
	case "render":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		template := fs.String("template", "", "label template json")
		file := fs.String("file", "", "render a workbook directly instead of the store")
		out := fs.String("out", "", "output pdf path")
		fresh, legacy := modeFlags(fs)
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*template) == "" {
			must(fmt.Errorf("--template is required"))
		}
		outPath := *out
		if outPath == "" {
			outPath = filepath.Join(cfg.OutputDir, "labels.pdf")
		}

		data, err := os.ReadFile(*template)
		must(err)
		tpl, err := render.Parse(data)
		must(err)

		var rows []internal.Record
		if strings.TrimSpace(*file) != "" {
			mode := pickMode(*fresh, *legacy, cfg)
			sheets, err := readSource(*file, "")
			must(err)
			rows = mapSheets(cfg, sheets, filepath.Base(*file), mode)
		} else {
			rows, err = st.Load()
			must(err)
		}

		fonts, err := loadFonts(cfg)
		must(err)
		pages, err := render.New(fonts, cfg, log).RenderFile(rows, tpl, outPath)
		must(err)
		if pages == 0 {
			fmt.Println("render done: nothing to print")
			return
		}
		fmt.Printf("render done pages=%d output=%s\n", pages, outPath)
	case "store:list":
		rows, err := st.Load()
		must(err)
		for _, rec := range rows {
			code := rec.Barcode
			if code == "" {
				code = rec.PLU
			}
			name := rec.Item
			if name == "" {
				name = rec.EnglishDesc
			}
			fmt.Printf("%s\t%s\t%s\treg=%s promo=%s\t%s\n", code, rec.Brand, name, rec.Reg, rec.Promo, rec.SourceFile)
		}
		fmt.Printf("total: %d\n", len(rows))
	case "store:prune":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		keep := fs.Int("keep", cfg.RecentSourceLimit, "number of recent source files to keep")
		_ = fs.Parse(os.Args[2:])

		hist, err := history.Open(cfg.HistoryDBPath)
		must(err)
		defer hist.Close()
		recent, err := hist.RecentSources(*keep)
		must(err)
		removed, err := st.PruneToRecentSources(recent, *keep)
		must(err)
		fmt.Printf("prune done kept=%d sources removed=%d rows\n", len(recent), removed)
	case "store:export":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}
		rows, err := st.Load()
		must(err)
		must(store.ExportXLSX(rows, *out))
		fmt.Printf("exported %d rows to %s\n", len(rows), *out)
	case "scan":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		dir := fs.String("dir", "", "drop directory to watch")
		interval := fs.Int("interval", 30, "poll interval seconds")
		once := fs.Bool("once", false, "scan a single time and exit")
		fresh, legacy := modeFlags(fs)
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*dir) == "" {
			must(fmt.Errorf("--dir is required"))
		}
		mode := pickMode(*fresh, *legacy, cfg)

		maxAge := time.Duration(cfg.ScanMaxAgeDays) * 24 * time.Hour
		handler := func(path string) error {
			_, err := importFile(cfg, st, log, path, "", mode)
			return err
		}
		s := importer.NewScanner(*dir, maxAge, time.Duration(*interval)*time.Second, handler, log)
		if *once {
			must(s.ScanOnce())
			return
		}
		must(s.Run(context.Background()))
	default:
		usage()
		os.Exit(1)
	}
}

func importFile(cfg config.Config, st *store.Store, log *zap.Logger, file, sheet string, mode internal.Mode) (int, error) {
	sheets, err := readSource(file, sheet)
	if err != nil {
		return 0, err
	}

	hist, err := history.Open(cfg.HistoryDBPath)
	if err != nil {
		return 0, err
	}
	defer hist.Close()

	sourceFile := filepath.Base(file)
	total := 0
	for _, sh := range sheets {
		recs := mapSheetRecords(cfg, sh, sourceFile, mode)
		if recs == nil {
			log.Warn("no recognizable columns", zap.String("file", sourceFile), zap.String("sheet", sh.Name))
			continue
		}
		if err := st.Upsert(recs, mode); err != nil {
			return total, err
		}
		if err := hist.RecordImport(sourceFile, sh.Name, len(recs), mode.String()); err != nil {
			log.Warn("history write failed", zap.String("file", sourceFile), zap.Error(err))
		}
		total += len(recs)
	}
	if total == 0 {
		return 0, fmt.Errorf("no recognizable columns in %s", file)
	}
	return total, nil
}

func mapSheets(cfg config.Config, sheets []importer.Sheet, sourceFile string, mode internal.Mode) []internal.Record {
	var out []internal.Record
	for _, sh := range sheets {
		out = append(out, mapSheetRecords(cfg, sh, sourceFile, mode)...)
	}
	return out
}

func mapSheetRecords(cfg config.Config, sh importer.Sheet, sourceFile string, mode internal.Mode) []internal.Record {
	sample := sh.Rows
	if len(sample) > cfg.MapperSampleRows {
		sample = sample[:cfg.MapperSampleRows]
	}
	m := mapper.MapColumns(sh.Headers, sample, mode, cfg)
	if len(m) == 0 {
		return nil
	}
	return mapper.RowsToRecords(sh.Headers, sh.Rows, m, sourceFile, sh.Name)
}

func readSource(file, sheet string) ([]importer.Sheet, error) {
	lower := strings.ToLower(file)
	if strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm") {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		headers, rows, err := importer.ReadHTMLTable(f)
		if err != nil {
			return nil, err
		}
		return []importer.Sheet{{Headers: headers, Rows: rows}}, nil
	}
	if sheet != "" {
		headers, rows, err := importer.ReadXLSX(file, sheet)
		if err != nil {
			return nil, err
		}
		return []importer.Sheet{{Name: sheet, Headers: headers, Rows: rows}}, nil
	}
	return importer.ReadWorkbook(file)
}

func loadFonts(cfg config.Config) (*shaping.Registry, error) {
	fonts := shaping.NewRegistry(cfg.ArabicFontFamily)
	if cfg.ArabicFontFile == "" {
		return fonts, nil
	}
	path := cfg.ArabicFontFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.FontDir, path)
	}
	if err := fonts.AddUTF8File(cfg.ArabicFontFamily, "", path); err != nil {
		return nil, err
	}
	return fonts, nil
}

func modeFlags(fs *flag.FlagSet) (fresh, legacy *bool) {
	fresh = fs.Bool("fresh", false, "treat input as fresh-food schema")
	legacy = fs.Bool("legacy", false, "treat input as legacy schema")
	return fresh, legacy
}

func pickMode(fresh, legacy bool, cfg config.Config) internal.Mode {
	switch {
	case fresh:
		return internal.ModeFresh
	case legacy:
		return internal.ModeLegacy
	case cfg.FreshDefault:
		return internal.ModeFresh
	}
	return internal.ModeLegacy
}

func usage() {
	fmt.Println("usage: labelmill <command>")
	fmt.Println("commands:")
	fmt.Println("  import --file=promo.xlsx [--sheet=...] [--fresh|--legacy]")
	fmt.Println("  render --template=labels.json [--file=promo.xlsx] [--out=./out/labels.pdf]")
	fmt.Println("  store:list")
	fmt.Println("  store:prune [--keep=5]")
	fmt.Println("  store:export --out=./out/snapshot.xlsx")
	fmt.Println("  scan --dir=./drop [--interval=30] [--once] [--fresh|--legacy]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
