package domain

// Movie is the primary catalog entity.
type Movie struct {
	ID          int64    `json:"movieId"`
	Title       string   `json:"title"`
	ReleaseYear int64    `json:"releaseYear"`
	Duration    *int64   `json:"duration,omitempty"`
	Description *string  `json:"description,omitempty"`
	Language    *string  `json:"language,omitempty"`
	Country     *string  `json:"country,omitempty"`
	PosterURL   *string  `json:"posterUrl,omitempty"`
	TrailerURL  *string  `json:"trailerUrl,omitempty"`
	AvgRating   *float64 `json:"avgRating,omitempty"`
}

// Genre tags a movie.
type Genre struct {
	ID          int64   `json:"genreId"`
	Name        string  `json:"genreName"`
	Description *string `json:"description,omitempty"`
}

// MovieWithGenres is the listing shape of /movies/with-genres.
type MovieWithGenres struct {
	Movie
	Genres []string `json:"genres"`
}

// MovieFullDetails aggregates a movie with genres, credits and reviews.
type MovieFullDetails struct {
	Movie
	Genres    []GenreRef      `json:"genres"`
	Cast      []PersonCredits `json:"cast"`
	Directors []PersonCredits `json:"directors"`
	Producers []PersonCredits `json:"producers"`
	Writers   []PersonCredits `json:"writers"`
	Reviews   []Review        `json:"reviews"`
}

// GenreRef is the genre shape embedded in full details.
type GenreRef struct {
	ID          int64   `json:"genreId"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// PersonCredits lists the roles one person holds on a movie.
type PersonCredits struct {
	PersonID   int64        `json:"personId"`
	Name       string       `json:"name"`
	BirthDate  *string      `json:"birthDate,omitempty"`
	Bio        *string      `json:"bio,omitempty"`
	ProfileURL *string      `json:"profileUrl,omitempty"`
	Roles      []RoleCredit `json:"roles"`
}

// RoleCredit is one role held by a person on a movie.
type RoleCredit struct {
	RoleID          int64   `json:"roleId"`
	RoleName        string  `json:"roleName"`
	RoleDescription *string `json:"roleDescription,omitempty"`
	Note            *string `json:"note,omitempty"`
}
