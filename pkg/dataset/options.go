package dataset

// Option configures how a CSV blob is mapped onto a Schema.
// JSON documents declare their own schema; options other than WithSchema are ignored for them,
// and a WithSchema value must match the declared one.
type Option func(*options)

type options struct {
	schema       *Schema
	label        string
	protected    []string
	favorable    float64
	unfavorable  float64
	weightColumn string
}

func defaultOptions() options {
	return options{
		favorable:    DefaultFavorableLabel,
		unfavorable:  DefaultUnfavorableLabel,
		weightColumn: "weight",
	}
}

// WithSchema supplies the complete expected schema.
func WithSchema(s Schema) Option {
	return func(o *options) {
		c := s.clone()
		o.schema = &c
	}
}

// WithLabel names the CSV label column.
func WithLabel(name string) Option {
	return func(o *options) { o.label = name }
}

// WithLabelValues sets the favorable and unfavorable label encodings.
func WithLabelValues(favorable, unfavorable float64) Option {
	return func(o *options) {
		o.favorable = favorable
		o.unfavorable = unfavorable
	}
}

// WithProtected names the CSV protected-attribute columns.
func WithProtected(names ...string) Option {
	return func(o *options) { o.protected = append([]string(nil), names...) }
}

// WithWeightColumn names the optional CSV instance-weight column. Defaults to "weight";
// an empty name disables weight parsing.
func WithWeightColumn(name string) Option {
	return func(o *options) { o.weightColumn = name }
}

func collect(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
