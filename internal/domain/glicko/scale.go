package glicko

// ToInternal maps a display-scale rating onto the centered internal scale.
func (c Config) ToInternal(r Rating) Rating {
	return Rating{
		Rating:     (r.Rating - c.BaseRating) / c.ScaleRatio,
		Deviation:  r.Deviation / c.ScaleRatio,
		Volatility: r.Volatility,
	}
}

// ToDisplay is the inverse of ToInternal.
func (c Config) ToDisplay(r Rating) Rating {
	return Rating{
		Rating:     r.Rating*c.ScaleRatio + c.BaseRating,
		Deviation:  r.Deviation * c.ScaleRatio,
		Volatility: r.Volatility,
	}
}
