package dtos

type AdminLoginRequest struct {
	Password string `json:"password"`
}

// ViewRequest changes a console's sort key and/or search term. Sort
// accepts name, room, checked_desc, checked_asc, or checked to toggle.
type ViewRequest struct {
	Sort *string `json:"sort,omitempty"`
	Term *string `json:"term,omitempty"`
}
