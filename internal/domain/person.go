package domain

// Person is a cast or crew member.
type Person struct {
	ID         int64   `json:"personId"`
	Name       string  `json:"name"`
	BirthDate  *string `json:"birthDate,omitempty"`
	Bio        *string `json:"bio,omitempty"`
	ProfileURL *string `json:"profileUrl,omitempty"`
}

// MovieRole is a participation role such as Actor or Director.
type MovieRole struct {
	ID          int64   `json:"roleId"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// Participation links a person to a movie under a role.
type Participation struct {
	ID            int64      `json:"participationId"`
	MovieID       int64      `json:"movieId,omitempty"`
	Person        *Person    `json:"person,omitempty"`
	Role          *MovieRole `json:"role,omitempty"`
	CharacterName *string    `json:"characterName,omitempty"`
}

// CastCredit is the payload attaching a person to a movie.
type CastCredit struct {
	PersonID      int64   `json:"personId"`
	RoleID        int64   `json:"roleId"`
	CharacterName *string `json:"characterName,omitempty"`
}
