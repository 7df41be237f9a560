package model

// IdentityState is the shape of the active authentication identity.
type IdentityState string

const (
	Unauthenticated IdentityState = "unauthenticated"
	Anonymous       IdentityState = "anonymous"
	Linked          IdentityState = "linked"
)

// Identity is the runtime authentication state. Email is only set when
// State is Linked.
type Identity struct {
	State IdentityState `json:"state"`
	UID   string        `json:"uid,omitempty"`
	Email string        `json:"email,omitempty"`
}

func (i Identity) IsAuthenticated() bool {
	return i.State != Unauthenticated && i.UID != ""
}

func (i Identity) IsAnonymous() bool {
	return i.State == Anonymous
}

// Account is a credential record kept by the local identity provider.
type Account struct {
	UID          string  `json:"uid"`
	Email        *string `json:"email"`
	PasswordHash []byte  `json:"-"`
	Salt         []byte  `json:"-"`
	Anonymous    bool    `json:"anonymous"`
	CreatedAt    int64   `json:"created_at"`
}

// Identity converts the account into the identity it authenticates.
func (a Account) Identity() Identity {
	if a.Anonymous || a.Email == nil {
		return Identity{State: Anonymous, UID: a.UID}
	}
	return Identity{State: Linked, UID: a.UID, Email: *a.Email}
}
