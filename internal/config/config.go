package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries every tunable the pipeline consumes. The mapper and
// fitting cutoffs are empirically tuned defaults, kept here rather than
// inside the algorithms so they can be adjusted against real sample data.
type Config struct {
	StorePath     string
	HistoryDBPath string
	OutputDir     string

	FontDir          string
	ArabicFontFamily string
	ArabicFontFile   string

	// Column mapper thresholds.
	PricePairMinRows       int
	PricePairAdjacentRatio float64
	PricePairAnyRatio      float64
	BrandPrefixRatio       float64
	BrandPrefixMinRows     int
	BrandScoreAccept       float64
	BrandScoreKeep         float64
	MapperSampleRows       int

	// Fitting engine.
	FitShrinkStepPt   float64
	FitMinSizePt      float64
	PriceDecimalScale float64
	StackMinGapMM     float64
	SlotClipMarginMM  float64

	RecentSourceLimit int
	ScanMaxAgeDays    int

	// Default mode for CLI invocations that do not pass --fresh/--legacy.
	FreshDefault bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		StorePath:     getEnv("STORE_PATH", filepath.Join(cwd, "data", "catalog.csv")),
		HistoryDBPath: getEnv("HISTORY_DB_PATH", filepath.Join(cwd, "data", "history.db")),
		OutputDir:     getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		FontDir:          getEnv("FONT_DIR", filepath.Join(cwd, "fonts")),
		ArabicFontFamily: getEnv("ARABIC_FONT_FAMILY", "NotoNaskhArabic"),
		ArabicFontFile:   getEnv("ARABIC_FONT_FILE", ""),

		PricePairMinRows:       getEnvInt("MAP_PRICE_PAIR_MIN_ROWS", 5),
		PricePairAdjacentRatio: getEnvFloat("MAP_PRICE_PAIR_ADJ_RATIO", 0.60),
		PricePairAnyRatio:      getEnvFloat("MAP_PRICE_PAIR_ANY_RATIO", 0.65),
		BrandPrefixRatio:       getEnvFloat("MAP_BRAND_PREFIX_RATIO", 0.40),
		BrandPrefixMinRows:     getEnvInt("MAP_BRAND_PREFIX_MIN_ROWS", 10),
		BrandScoreAccept:       getEnvFloat("MAP_BRAND_SCORE_ACCEPT", 1.8),
		BrandScoreKeep:         getEnvFloat("MAP_BRAND_SCORE_KEEP", 1.4),
		MapperSampleRows:       getEnvInt("MAP_SAMPLE_ROWS", 200),

		FitShrinkStepPt:   getEnvFloat("FIT_SHRINK_STEP_PT", 0.5),
		FitMinSizePt:      getEnvFloat("FIT_MIN_SIZE_PT", 4),
		PriceDecimalScale: getEnvFloat("FIT_PRICE_DECIMAL_SCALE", 0.6),
		StackMinGapMM:     getEnvFloat("FIT_STACK_MIN_GAP_MM", 1.5),
		SlotClipMarginMM:  getEnvFloat("FIT_SLOT_CLIP_MARGIN_MM", 1.0),

		RecentSourceLimit: getEnvInt("RECENT_SOURCE_LIMIT", 5),
		ScanMaxAgeDays:    getEnvInt("SCAN_MAX_AGE_DAYS", 14),

		FreshDefault: getEnvBool("FRESH_MODE", false),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}
