package reconcile

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ToxicGLaDOS/mtg-collection-tracker/internal/catalog"
)

// fakeCatalog is an in-memory Catalog for reconciler tests.
type fakeCatalog struct {
	sets     map[string][]catalog.Entry
	defaults map[string]string // "cn:set" -> lang
}

func (f *fakeCatalog) EntriesBySet(setCode string) []catalog.Entry {
	return f.sets[setCode]
}

func (f *fakeCatalog) DefaultLang(collectorNumber, setCode string) (string, bool) {
	lang, ok := f.defaults[collectorNumber+":"+setCode]
	return lang, ok
}

func testCatalog() *fakeCatalog {
	return &fakeCatalog{
		sets: map[string][]catalog.Entry{
			"lea": {
				{ID: "bolt-en", Name: "Lightning Bolt", SetCode: "lea", CollectorNumber: "161", Lang: "en"},
				{ID: "bolt-de", Name: "Lightning Bolt", SetCode: "lea", CollectorNumber: "161", Lang: "de"},
			},
			"m21": {
				// Several printings of the same name; integer order differs
				// from string order.
				{ID: "shock-2", Name: "Shock", SetCode: "m21", CollectorNumber: "2", Lang: "en"},
				{ID: "shock-9", Name: "Shock", SetCode: "m21", CollectorNumber: "9", Lang: "en"},
				{ID: "shock-10", Name: "Shock", SetCode: "m21", CollectorNumber: "10", Lang: "en"},
			},
			"unf": {
				{ID: "gala-a", Name: "Gala Greeters", SetCode: "unf", CollectorNumber: "11a", Lang: "en"},
				{ID: "gala-b", Name: "Gala Greeters", SetCode: "unf", CollectorNumber: "11b", Lang: "en"},
			},
			"mh2": {
				{ID: "fire-ice", Name: "Fire // Ice", SetCode: "mh2", CollectorNumber: "290", Lang: "en", FaceNames: []string{"Fire", "Ice"}},
			},
			"pw21": {
				{ID: "arbor-elf", Name: "Arbor Elf", SetCode: "pw21", CollectorNumber: "1", Lang: "en"},
			},
			"clb": {
				{ID: "clb-swamp", Name: "Swamp", SetCode: "clb", CollectorNumber: "957", Lang: "en"},
			},
			"tsb": {
				{ID: "psionic-blast", Name: "Psionic Blast", SetCode: "tsb", CollectorNumber: "27", Lang: "en"},
			},
			"sok": {
				{ID: "oboro-zh", Name: "Oboro", SetCode: "sok", CollectorNumber: "277", Lang: "zhs"},
			},
		},
		defaults: map[string]string{
			"161:lea": "en",
			"2:m21":   "en",
			"9:m21":   "en",
			"10:m21":  "en",
			"11a:unf": "en",
			"290:mh2": "en",
			"1:pw21":  "en",
			"957:clb": "en",
			"27:tsb":  "en",
			"277:sok": "en",
		},
	}
}

func TestReconcileResolvesIdentity(t *testing.T) {
	r := New(testCatalog(), nil)

	tests := []struct {
		name     string
		record   ExportRecord
		expected Record
	}{
		{
			"Default collector number",
			ExportRecord{Quantity: 4, Name: "Lightning Bolt", SetCode: "LEA"},
			Record{Quantity: 4, Name: "Lightning Bolt", SetCode: "lea", CollectorNumber: "161", Lang: "en", ScryfallID: "bolt-en"},
		},
		{
			"Numeric variation kept verbatim",
			ExportRecord{Quantity: 1, Name: "Shock", SetCode: "M21", Variation: "9"},
			Record{Quantity: 1, Name: "Shock", SetCode: "m21", CollectorNumber: "9", Lang: "en", ScryfallID: "shock-9"},
		},
		{
			"Numeric candidates sort as integers",
			ExportRecord{Quantity: 1, Name: "Shock", SetCode: "M21"},
			Record{Quantity: 1, Name: "Shock", SetCode: "m21", CollectorNumber: "2", Lang: "en", ScryfallID: "shock-2"},
		},
		{
			"First face fallback",
			ExportRecord{Quantity: 2, Name: "Fire", SetCode: "MH2"},
			Record{Quantity: 2, Name: "Fire", SetCode: "mh2", CollectorNumber: "290", Lang: "en", ScryfallID: "fire-ice"},
		},
		{
			"Promo dispatch by name",
			ExportRecord{Quantity: 1, Name: "Arbor Elf", SetCode: "000", Variation: "PromoPack"},
			Record{Quantity: 1, Name: "Arbor Elf", SetCode: "pw21", CollectorNumber: "1", Lang: "en", ScryfallID: "arbor-elf", PromoPack: true},
		},
		{
			"Misfiled set redirect",
			ExportRecord{Quantity: 3, Name: "Swamp", SetCode: "TSB"},
			Record{Quantity: 3, Name: "Swamp", SetCode: "clb", CollectorNumber: "957", Lang: "en", ScryfallID: "clb-swamp"},
		},
		{
			"Foil modifier",
			ExportRecord{Quantity: 1, Name: "Psionic Blast", SetCode: "TSB", Modifier: "f"},
			Record{Quantity: 1, Name: "Psionic Blast", SetCode: "tsb", CollectorNumber: "27", Lang: "en", ScryfallID: "psionic-blast", Foil: true},
		},
		{
			"Language modifier overrides default",
			ExportRecord{Quantity: 1, Name: "Lightning Bolt", SetCode: "LEA", Modifier: "DE"},
			Record{Quantity: 1, Name: "Lightning Bolt", SetCode: "lea", CollectorNumber: "161", Lang: "de", ScryfallID: "bolt-de"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := r.Reconcile([]ExportRecord{tt.record})
			if err != nil {
				t.Fatalf("Reconcile returned error: %v", err)
			}
			if len(result.Records) != 1 {
				t.Fatalf("got %d records, want 1", len(result.Records))
			}
			if result.Records[0] != tt.expected {
				t.Errorf("record = %+v, want %+v", result.Records[0], tt.expected)
			}
		})
	}
}

func TestReconcileFlagCombinations(t *testing.T) {
	r := New(testCatalog(), nil)

	tests := []struct {
		modifier   string
		theList    bool
		foil       bool
		promoPack  bool
		prerelease bool
	}{
		{"", false, false, false, false},
		{"f", false, true, false, false},
		{"list", true, false, false, false},
		{"pp", false, false, true, false},
		{"f-pp", false, true, true, false},
		{"f-pre", false, true, false, true},
	}

	for _, tt := range tests {
		name := tt.modifier
		if name == "" {
			name = "none"
		}
		t.Run(name, func(t *testing.T) {
			result, err := r.Reconcile([]ExportRecord{
				{Quantity: 1, Name: "Lightning Bolt", SetCode: "LEA", Modifier: tt.modifier},
			})
			if err != nil {
				t.Fatalf("Reconcile returned error: %v", err)
			}
			rec := result.Records[0]
			if rec.TheList != tt.theList || rec.Foil != tt.foil ||
				rec.PromoPack != tt.promoPack || rec.Prerelease != tt.prerelease {
				t.Errorf("modifier %q: got list=%v foil=%v pp=%v pre=%v, want list=%v foil=%v pp=%v pre=%v",
					tt.modifier, rec.TheList, rec.Foil, rec.PromoPack, rec.Prerelease,
					tt.theList, tt.foil, tt.promoPack, tt.prerelease)
			}
		})
	}
}

func TestReconcileLexicographicTieWarns(t *testing.T) {
	r := New(testCatalog(), nil)
	result, err := r.Reconcile([]ExportRecord{
		{Quantity: 1, Name: "Gala Greeters", SetCode: "UNF"},
	})
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if got := result.Records[0].CollectorNumber; got != "11a" {
		t.Errorf("collector number = %q, want %q", got, "11a")
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Kind != WarnAmbiguousCollectorNumber {
		t.Errorf("warnings = %+v, want one %s warning", result.Warnings, WarnAmbiguousCollectorNumber)
	}
}

func TestReconcileTraditionalChinese(t *testing.T) {
	r := New(testCatalog(), nil)
	result, err := r.Reconcile([]ExportRecord{
		{Quantity: 1, Name: "Oboro", SetCode: "SOK", Variation: "277", Modifier: "ZH"},
	})
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if got := result.Records[0].Lang; got != "zhs" {
		t.Errorf("lang = %q, want zhs", got)
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Kind != WarnTraditionalChinese {
		t.Errorf("warnings = %+v, want one %s warning", result.Warnings, WarnTraditionalChinese)
	}
}

func TestReconcileErrors(t *testing.T) {
	r := New(testCatalog(), nil)

	tests := []struct {
		name   string
		record ExportRecord
		target any
	}{
		{
			"Unknown set",
			ExportRecord{Quantity: 1, Name: "Lightning Bolt", SetCode: "ZZZ"},
			new(*UnknownSetError),
		},
		{
			"Card not in set",
			ExportRecord{Quantity: 1, Name: "Black Lotus", SetCode: "LEA"},
			new(*CardNotFoundError),
		},
		{
			"Unrecognized variation",
			ExportRecord{Quantity: 1, Name: "Lightning Bolt", SetCode: "LEA", Variation: "Etched"},
			new(*UnrecognizedVariationError),
		},
		{
			"Unhandled promo",
			ExportRecord{Quantity: 1, Name: "Sol Ring", SetCode: "000"},
			new(*UnhandledPromoSetError),
		},
		{
			"No default language",
			ExportRecord{Quantity: 1, Name: "Shock", SetCode: "M21", Variation: "99"},
			new(*NoDefaultLanguageError),
		},
		{
			"No identity for language",
			ExportRecord{Quantity: 1, Name: "Lightning Bolt", SetCode: "LEA", Modifier: "IT"},
			new(*AmbiguousMatchError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Reconcile([]ExportRecord{tt.record})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.As(err, tt.target) {
				t.Errorf("error = %v, want %T", err, tt.target)
			}
		})
	}
}

func TestReconcileAmbiguousIdentityListsCandidates(t *testing.T) {
	cat := testCatalog()
	cat.sets["lea"] = append(cat.sets["lea"],
		catalog.Entry{ID: "bolt-dupe", Name: "Lightning Bolt", SetCode: "lea", CollectorNumber: "161", Lang: "en"})

	r := New(cat, nil)
	_, err := r.Reconcile([]ExportRecord{
		{Quantity: 1, Name: "Lightning Bolt", SetCode: "LEA"},
	})
	var ambiguous *AmbiguousMatchError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("error = %v, want *AmbiguousMatchError", err)
	}
	if len(ambiguous.Candidates) != 2 {
		t.Errorf("candidates = %v, want 2 ids", ambiguous.Candidates)
	}
}

func TestReconcileTotals(t *testing.T) {
	r := New(testCatalog(), nil)
	records := []ExportRecord{
		{Quantity: 4, Name: "Lightning Bolt", SetCode: "LEA"},
		{Quantity: 3, Name: "Shock", SetCode: "M21", Variation: "9"},
	}

	result, err := r.Reconcile(records)
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if result.TotalQuantity != 7 {
		t.Errorf("TotalQuantity = %d, want 7", result.TotalQuantity)
	}
	if err := result.CheckExpectedTotal(7); err != nil {
		t.Errorf("CheckExpectedTotal(7) = %v, want nil", err)
	}

	var mismatch *QuantityMismatchError
	if err := result.CheckExpectedTotal(8); !errors.As(err, &mismatch) {
		t.Errorf("CheckExpectedTotal(8) = %v, want *QuantityMismatchError", err)
	}
}

func TestReconcileIsDeterministic(t *testing.T) {
	r := New(testCatalog(), nil)
	records := []ExportRecord{
		{Quantity: 4, Name: "Lightning Bolt", SetCode: "LEA"},
		{Quantity: 1, Name: "Gala Greeters", SetCode: "UNF"},
		{Quantity: 2, Name: "Fire", SetCode: "MH2"},
	}

	write := func() []byte {
		result, err := r.Reconcile(records)
		if err != nil {
			t.Fatalf("Reconcile returned error: %v", err)
		}
		var buf bytes.Buffer
		if err := WriteRecords(&buf, result.Records); err != nil {
			t.Fatalf("WriteRecords returned error: %v", err)
		}
		return buf.Bytes()
	}

	first := write()
	second := write()
	if !bytes.Equal(first, second) {
		t.Error("two runs over the same input produced different output")
	}
}
