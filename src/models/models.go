package models

// All lists the tables owned by this service, in migration order.
func All() []any {
	return []any{
		&Program{},
		&ProgramTranslation{},
		&Profile{},
		&Booking{},
		&TrailLog{},
	}
}
