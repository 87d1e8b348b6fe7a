package sentiment

// Domain keyword table: currency/economy terms mapped to signed impact
// values. Zero-valued entries are context-dependent but still count toward
// match density when computing impact.
var domainKeywords = map[string]float64{
	"devaluation":         -0.8,
	"depreciation":        -0.7,
	"inflation":           -0.6,
	"hyperinflation":      -0.9,
	"rbz auction":         0.4,
	"reserve bank":        0.3,
	"monetary policy":     0.4,
	"foreign currency":    0.3,
	"forex shortage":      -0.7,
	"forex reserves":      0.5,
	"black market":        -0.6,
	"parallel market":     -0.5,
	"exchange control":    -0.4,
	"currency stability":  0.7,
	"currency reform":     0.5,
	"dollarization":       0.5,
	"zimbabwe dollar":     0.0,
	"bond note":           -0.3,
	"foreign exchange":    0.0,
	"imf":                 0.4,
	"world bank":          0.4,
	"export earnings":     0.6,
	"trade deficit":       -0.6,
	"budget deficit":      -0.5,
	"economic growth":     0.7,
	"economic crisis":     -0.8,
	"treasury bill":       -0.3,
	"money supply":        -0.4,
	"liquidity":           0.3,
	"interest rate":       0.0,
	"investor confidence": 0.7,
	"foreign investment":  0.8,
	"debt":                -0.5,
	"loan":                0.0,
	"sanctions":           -0.6,
	"corruption":          -0.7,
	"economic policy":     0.0,
	"zim dollar":          0.0,
	"rtgs":                -0.1,
}

// stopwords removed before single-word domain matching.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "been": true, "but": true, "by": true, "for": true,
	"from": true, "had": true, "has": true, "have": true, "he": true,
	"her": true, "his": true, "if": true, "in": true, "is": true,
	"it": true, "its": true, "of": true, "on": true,
	"or": true, "she": true, "that": true, "the": true, "their": true,
	"there": true, "they": true, "this": true, "to": true, "was": true,
	"were": true, "which": true, "will": true, "with": true, "you": true,
}

// Fallback polarity lexicon for the lexicon-only general scorer.
var positiveTerms = map[string]bool{
	"gain": true, "gains": true, "growth": true, "improve": true,
	"improved": true, "improving": true, "recovery": true, "recover": true,
	"strengthen": true, "strengthened": true, "strong": true, "stable": true,
	"stability": true, "stabilize": true, "stabilized": true, "rise": true,
	"rises": true, "boost": true, "boosted": true, "confidence": true,
	"positive": true, "surplus": true, "success": true, "successful": true,
	"good": true, "better": true, "best": true, "progress": true,
}

var negativeTerms = map[string]bool{
	"loss": true, "losses": true, "crash": true, "crashed": true,
	"collapse": true, "collapsed": true, "crisis": true, "weaken": true,
	"weakened": true, "weak": true, "unstable": true, "instability": true,
	"fall": true, "falls": true, "fell": true, "plunge": true,
	"plunged": true, "shortage": true, "shortages": true, "panic": true,
	"negative": true, "deficit": true, "fail": true, "failed": true,
	"failure": true, "bad": true, "worse": true, "worst": true,
	"decline": true, "declined": true, "slump": true, "corruption": true,
}

// negationTerms toggle the negate flag in the fallback scorer.
var negationTerms = map[string]bool{
	"not": true, "no": true, "never": true, "neither": true, "nor": true,
	"cannot": true, "cant": true, "dont": true, "doesnt": true,
	"didnt": true, "wont": true, "wouldnt": true, "isnt": true,
	"arent": true, "wasnt": true, "werent": true, "without": true,
}
