package patterns

import (
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
)

// Tier names.
const (
	TierClassic     = "classic"
	TierHarmonic    = "harmonic"
	TierWave        = "wave"
	TierFlow        = "flow"
	TierFibonacci   = "fibonacci"
	TierCandle      = "candlestick"
	TierMomentum    = "momentum"
	TierCombination = "combination"
	TierMaster      = "master"
	TierGodlike     = "godlike"
	TierLegendary   = "legendary"
	TierQuantum     = "quantum"
)

// DefaultTiers are informational groupings surfaced over the API.
func DefaultTiers() []models.Tier {
	return []models.Tier{
		{Name: TierClassic, Weight: 1.0, Description: "double/triple extrema, head and shoulders, triangles and wedges"},
		{Name: TierHarmonic, Weight: 1.2, Description: "XABCD ratio patterns"},
		{Name: TierWave, Weight: 1.1, Description: "Elliott impulses and Wyckoff range tests"},
		{Name: TierFlow, Weight: 0.9, Description: "volume surges and OBV divergence"},
		{Name: TierFibonacci, Weight: 1.0, Description: "retracement zone entries"},
		{Name: TierCandle, Weight: 0.6, Description: "one to three bar reversal formations"},
		{Name: TierMomentum, Weight: 0.8, Description: "oscillators, moving averages and volatility bands"},
		{Name: TierCombination, Weight: 1.5, Description: "two-category confluence"},
		{Name: TierMaster, Weight: 1.6, Description: "momentum and trend agreement"},
		{Name: TierGodlike, Weight: 2.0, Description: "three-category confluence"},
		{Name: TierLegendary, Weight: 2.5, Description: "four-category confluence"},
		{Name: TierQuantum, Weight: 3.0, Description: "five-category confluence"},
	}
}

func profile(name string, cat models.Category, tier string, dir models.Direction,
	success, reliability, gain float64, grade string, minTF models.Timeframe) models.PatternProfile {
	return models.PatternProfile{
		Name:           name,
		Category:       cat,
		Tier:           tier,
		Direction:      dir,
		SuccessRate:    success,
		Reliability:    reliability,
		AverageGainPct: gain,
		Grade:          grade,
		MinTimeframe:   minTF,
	}
}

// DefaultRules is the built-in profile table.
func DefaultRules() []Rule {
	const (
		bull = models.Bullish
		bear = models.Bearish
	)
	var (
		catStructural  = models.CategoryStructural
		catHarmonic    = models.CategoryHarmonic
		catElliott     = models.CategoryElliott
		catWyckoff     = models.CategoryWyckoff
		catVolume      = models.CategoryVolume
		catFib         = models.CategoryFibonacci
		catCandlestick = models.CategoryCandlestick
		catOscillator  = models.CategoryOscillator
		catMoving      = models.CategoryMoving
		catVolatility  = models.CategoryVolatility
		catCombination = models.CategoryCombination
	)

	perfect := defaultExtrema(2)
	perfect.TolerancePct = 1.0
	perfect.RequireVolume = true

	gartley := harmonicParams(Span{0.618, 0.618}, Span{0.382, 0.886}, Span{1.27, 1.618}, Span{0.786, 0.786})
	bat := harmonicParams(Span{0.382, 0.5}, Span{0.382, 0.886}, Span{1.618, 2.618}, Span{0.886, 0.886})
	butterfly := harmonicParams(Span{0.786, 0.786}, Span{0.382, 0.886}, Span{1.618, 2.24}, Span{1.27, 1.27})
	crab := harmonicParams(Span{0.382, 0.618}, Span{0.382, 0.886}, Span{2.24, 3.618}, Span{1.618, 1.618})

	goldenPocket := defaultFib(Span{0.618, 0.65}, 0.786, 0.272)
	deepRetrace := defaultFib(Span{0.75, 0.82}, 1.0, 0)

	golden := CrossParams{Fast: 50, Slow: 200, TargetATRs: 5, ATRMult: 2}
	ema := CrossParams{Fast: 9, Slow: 21, Exponential: true, TargetATRs: 2.5, ATRMult: 1.5}

	agreeing := func(minCats int, req ...models.Category) Builder {
		return Confluence(ConfluenceParams{Requires: req, MinCategories: minCats, MinConfidence: 20, ATRMult: 2})
	}

	return []Rule{
		{profile("DOUBLE_BOTTOM", catStructural, TierClassic, bull, 72, 0.82, 8.5, "A", ""), Extrema(defaultExtrema(2))},
		{profile("DOUBLE_TOP", catStructural, TierClassic, bear, 72, 0.82, 8.0, "A", ""), Extrema(defaultExtrema(2))},
		{profile("PERFECT_DOUBLE_BOTTOM", catStructural, TierClassic, bull, 78, 0.88, 10.2, "A+", ""), Extrema(perfect)},
		{profile("PERFECT_DOUBLE_TOP", catStructural, TierClassic, bear, 77, 0.87, 9.8, "A+", ""), Extrema(perfect)},
		{profile("TRIPLE_BOTTOM", catStructural, TierClassic, bull, 75, 0.84, 9.5, "A", ""), Extrema(defaultExtrema(3))},
		{profile("TRIPLE_TOP", catStructural, TierClassic, bear, 74, 0.84, 9.1, "A", ""), Extrema(defaultExtrema(3))},
		{profile("HEAD_AND_SHOULDERS", catStructural, TierClassic, bear, 81, 0.86, 11.2, "A+", ""), HeadAndShoulders(defaultShoulders())},
		{profile("INVERSE_HEAD_AND_SHOULDERS", catStructural, TierClassic, bull, 80, 0.86, 11.0, "A+", ""), HeadAndShoulders(defaultShoulders())},
		{profile("ASCENDING_TRIANGLE", catStructural, TierClassic, bull, 70, 0.78, 7.5, "B+", ""), Triangle(defaultTriangle(ShapeAscending))},
		{profile("DESCENDING_TRIANGLE", catStructural, TierClassic, bear, 70, 0.78, 7.2, "B+", ""), Triangle(defaultTriangle(ShapeDescending))},
		{profile("SYMMETRICAL_TRIANGLE_BULLISH", catStructural, TierClassic, bull, 62, 0.72, 6.0, "B", ""), Triangle(defaultTriangle(ShapeSymmetrical))},
		{profile("SYMMETRICAL_TRIANGLE_BEARISH", catStructural, TierClassic, bear, 62, 0.72, 6.0, "B", ""), Triangle(defaultTriangle(ShapeSymmetrical))},
		{profile("RISING_WEDGE", catStructural, TierClassic, bear, 68, 0.76, 7.0, "B+", ""), Triangle(defaultTriangle(ShapeRisingWedge))},
		{profile("FALLING_WEDGE", catStructural, TierClassic, bull, 68, 0.76, 7.3, "B+", ""), Triangle(defaultTriangle(ShapeFallingWedge))},

		{profile("GARTLEY_BULLISH", catHarmonic, TierHarmonic, bull, 70, 0.80, 9.0, "A", models.TF5m), Harmonic(gartley)},
		{profile("GARTLEY_BEARISH", catHarmonic, TierHarmonic, bear, 70, 0.80, 9.0, "A", models.TF5m), Harmonic(gartley)},
		{profile("BAT_BULLISH", catHarmonic, TierHarmonic, bull, 73, 0.82, 9.5, "A", models.TF5m), Harmonic(bat)},
		{profile("BAT_BEARISH", catHarmonic, TierHarmonic, bear, 73, 0.82, 9.5, "A", models.TF5m), Harmonic(bat)},
		{profile("BUTTERFLY_BULLISH", catHarmonic, TierHarmonic, bull, 68, 0.78, 10.5, "B+", models.TF5m), Harmonic(butterfly)},
		{profile("BUTTERFLY_BEARISH", catHarmonic, TierHarmonic, bear, 68, 0.78, 10.5, "B+", models.TF5m), Harmonic(butterfly)},
		{profile("CRAB_BULLISH", catHarmonic, TierHarmonic, bull, 71, 0.79, 12.0, "A", models.TF5m), Harmonic(crab)},
		{profile("CRAB_BEARISH", catHarmonic, TierHarmonic, bear, 71, 0.79, 12.0, "A", models.TF5m), Harmonic(crab)},

		{profile("ELLIOTT_WAVE_3_BULLISH", catElliott, TierWave, bull, 68, 0.74, 12.0, "B+", models.TF30m), Elliott(defaultElliott(WaveThree))},
		{profile("ELLIOTT_WAVE_3_BEARISH", catElliott, TierWave, bear, 68, 0.74, 12.0, "B+", models.TF30m), Elliott(defaultElliott(WaveThree))},
		{profile("ELLIOTT_WAVE_5_EXHAUSTION_BEARISH", catElliott, TierWave, bear, 64, 0.70, 8.0, "B", models.TF30m), Elliott(defaultElliott(WaveFiveExhaustion))},
		{profile("ELLIOTT_WAVE_5_EXHAUSTION_BULLISH", catElliott, TierWave, bull, 64, 0.70, 8.0, "B", models.TF30m), Elliott(defaultElliott(WaveFiveExhaustion))},
		{profile("WYCKOFF_SPRING", catWyckoff, TierWave, bull, 74, 0.80, 9.0, "A", models.TF5m), Wyckoff(defaultWyckoff())},
		{profile("WYCKOFF_UPTHRUST", catWyckoff, TierWave, bear, 72, 0.79, 8.5, "A", models.TF5m), Wyckoff(defaultWyckoff())},

		{profile("VOLUME_BREAKOUT_BULLISH", catVolume, TierFlow, bull, 66, 0.75, 6.5, "B+", ""), Volume(defaultVolume(VolumeBreakout))},
		{profile("VOLUME_BREAKOUT_BEARISH", catVolume, TierFlow, bear, 66, 0.75, 6.5, "B+", ""), Volume(defaultVolume(VolumeBreakout))},
		{profile("OBV_BULLISH_DIVERGENCE", catVolume, TierFlow, bull, 63, 0.72, 5.5, "B", ""), Volume(defaultVolume(VolumeDivergence))},
		{profile("OBV_BEARISH_DIVERGENCE", catVolume, TierFlow, bear, 63, 0.72, 5.5, "B", ""), Volume(defaultVolume(VolumeDivergence))},

		{profile("FIB_GOLDEN_POCKET_BULLISH", catFib, TierFibonacci, bull, 71, 0.80, 7.8, "A", ""), Fibonacci(goldenPocket)},
		{profile("FIB_GOLDEN_POCKET_BEARISH", catFib, TierFibonacci, bear, 71, 0.80, 7.8, "A", ""), Fibonacci(goldenPocket)},
		{profile("FIB_786_REVERSAL_BULLISH", catFib, TierFibonacci, bull, 65, 0.74, 6.0, "B", ""), Fibonacci(deepRetrace)},
		{profile("FIB_786_REVERSAL_BEARISH", catFib, TierFibonacci, bear, 65, 0.74, 6.0, "B", ""), Fibonacci(deepRetrace)},

		{profile("HAMMER", catCandlestick, TierCandle, bull, 60, 0.68, 3.5, "B", ""), Candlestick(defaultCandle(ShapeHammer))},
		{profile("SHOOTING_STAR", catCandlestick, TierCandle, bear, 60, 0.68, 3.5, "B", ""), Candlestick(defaultCandle(ShapeShootingStar))},
		{profile("BULLISH_ENGULFING", catCandlestick, TierCandle, bull, 63, 0.70, 4.0, "B", ""), Candlestick(defaultCandle(ShapeBullishEngulfing))},
		{profile("BEARISH_ENGULFING", catCandlestick, TierCandle, bear, 63, 0.70, 4.0, "B", ""), Candlestick(defaultCandle(ShapeBearishEngulfing))},
		{profile("MORNING_STAR", catCandlestick, TierCandle, bull, 66, 0.72, 4.5, "B+", ""), Candlestick(defaultCandle(ShapeMorningStar))},
		{profile("EVENING_STAR", catCandlestick, TierCandle, bear, 66, 0.72, 4.5, "B+", ""), Candlestick(defaultCandle(ShapeEveningStar))},
		{profile("THREE_WHITE_SOLDIERS", catCandlestick, TierCandle, bull, 65, 0.71, 5.0, "B", ""), Candlestick(defaultCandle(ShapeThreeWhiteSoldiers))},
		{profile("THREE_BLACK_CROWS", catCandlestick, TierCandle, bear, 65, 0.71, 5.0, "B", ""), Candlestick(defaultCandle(ShapeThreeBlackCrows))},

		{profile("RSI_OVERSOLD_REVERSAL", catOscillator, TierMomentum, bull, 58, 0.66, 3.5, "C+", ""), Oscillator(defaultOscillator(RSIReversal))},
		{profile("RSI_OVERBOUGHT_REVERSAL", catOscillator, TierMomentum, bear, 58, 0.66, 3.5, "C+", ""), Oscillator(defaultOscillator(RSIReversal))},
		{profile("RSI_BULLISH_DIVERGENCE", catOscillator, TierMomentum, bull, 67, 0.74, 5.5, "B+", ""), Oscillator(defaultOscillator(RSIDivergence))},
		{profile("RSI_BEARISH_DIVERGENCE", catOscillator, TierMomentum, bear, 67, 0.74, 5.5, "B+", ""), Oscillator(defaultOscillator(RSIDivergence))},
		{profile("MACD_BULLISH_CROSS", catOscillator, TierMomentum, bull, 60, 0.68, 4.0, "B", ""), Oscillator(defaultOscillator(MACDCross))},
		{profile("MACD_BEARISH_CROSS", catOscillator, TierMomentum, bear, 60, 0.68, 4.0, "B", ""), Oscillator(defaultOscillator(MACDCross))},
		{profile("GOLDEN_CROSS", catMoving, TierMomentum, bull, 69, 0.77, 9.0, "A", models.TF1h), Crossover(golden)},
		{profile("DEATH_CROSS", catMoving, TierMomentum, bear, 69, 0.77, 9.0, "A", models.TF1h), Crossover(golden)},
		{profile("EMA_9_21_BULLISH_CROSS", catMoving, TierMomentum, bull, 57, 0.65, 3.0, "C+", ""), Crossover(ema)},
		{profile("EMA_9_21_BEARISH_CROSS", catMoving, TierMomentum, bear, 57, 0.65, 3.0, "C+", ""), Crossover(ema)},
		{profile("BOLLINGER_SQUEEZE_BREAKOUT_BULLISH", catVolatility, TierMomentum, bull, 65, 0.73, 6.0, "B", ""), Bands(defaultBands(BandSqueeze))},
		{profile("BOLLINGER_SQUEEZE_BREAKOUT_BEARISH", catVolatility, TierMomentum, bear, 65, 0.73, 6.0, "B", ""), Bands(defaultBands(BandSqueeze))},
		{profile("BOLLINGER_LOWER_BAND_REVERSAL", catVolatility, TierMomentum, bull, 59, 0.67, 3.5, "C+", ""), Bands(defaultBands(BandReversal))},
		{profile("BOLLINGER_UPPER_BAND_REVERSAL", catVolatility, TierMomentum, bear, 59, 0.67, 3.5, "C+", ""), Bands(defaultBands(BandReversal))},

		{profile("HARMONIC_FIBONACCI_CONFLUENCE_BULLISH", catCombination, TierCombination, bull, 84, 0.88, 13.0, "A+", ""), agreeing(2, catHarmonic, catFib)},
		{profile("HARMONIC_FIBONACCI_CONFLUENCE_BEARISH", catCombination, TierCombination, bear, 84, 0.88, 13.0, "A+", ""), agreeing(2, catHarmonic, catFib)},
		{profile("STRUCTURE_VOLUME_CONFLUENCE_BULLISH", catCombination, TierCombination, bull, 82, 0.86, 11.5, "A+", ""), agreeing(2, catStructural, catVolume)},
		{profile("STRUCTURE_VOLUME_CONFLUENCE_BEARISH", catCombination, TierCombination, bear, 82, 0.86, 11.5, "A+", ""), agreeing(2, catStructural, catVolume)},
		{profile("MASTER_MOMENTUM_CONFLUENCE_BULLISH", catCombination, TierMaster, bull, 78, 0.83, 8.0, "A", ""), agreeing(2, catOscillator, catMoving)},
		{profile("MASTER_MOMENTUM_CONFLUENCE_BEARISH", catCombination, TierMaster, bear, 78, 0.83, 8.0, "A", ""), agreeing(2, catOscillator, catMoving)},
		{profile("GODLIKE_TRIPLE_CONFLUENCE_BULLISH", catCombination, TierGodlike, bull, 88, 0.90, 15.0, "S", ""), agreeing(3)},
		{profile("GODLIKE_TRIPLE_CONFLUENCE_BEARISH", catCombination, TierGodlike, bear, 88, 0.90, 15.0, "S", ""), agreeing(3)},
		{profile("LEGENDARY_QUAD_CONFLUENCE_BULLISH", catCombination, TierLegendary, bull, 91, 0.92, 18.0, "S+", ""), agreeing(4)},
		{profile("LEGENDARY_QUAD_CONFLUENCE_BEARISH", catCombination, TierLegendary, bear, 91, 0.92, 18.0, "S+", ""), agreeing(4)},
		{profile("QUANTUM_CONFLUENCE_BULLISH", catCombination, TierQuantum, bull, 94, 0.94, 22.0, "SSS", ""), agreeing(5)},
		{profile("QUANTUM_CONFLUENCE_BEARISH", catCombination, TierQuantum, bear, 94, 0.94, 22.0, "SSS", ""), agreeing(5)},
	}
}

// DefaultCatalog builds the catalog from the built-in table.
// It panics if the table is inconsistent, which tests guard against.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultTiers(), DefaultRules())
	if err != nil {
		panic(err)
	}
	return c
}
