package gameparams

// Builder composes a resolution step by step:
//
//	gameparams.From(base).Shift(offset).Apply(override).Build()
type Builder struct {
	params GameParameters
}

func From(base GameParameters) *Builder {
	return &Builder{params: base}
}

func (b *Builder) Apply(p Patch) *Builder {
	b.params = b.params.Apply(p)
	return b
}

func (b *Builder) Shift(d Delta) *Builder {
	b.params = b.params.Shift(d)
	return b
}

func (b *Builder) Build() GameParameters {
	return b.params
}
