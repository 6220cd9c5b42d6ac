package models

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleSeller Role = "seller"
	RoleUser   Role = "user"
)

// Warranty lengths in months a cart line may carry.
const (
	WarrantyNone     = 0
	WarrantyQuarter  = 3
	WarrantyHalfYear = 6
)

type CartItem struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Warranty int     `json:"warranty,omitempty"`
	Image    string  `json:"image,omitempty"`
}

// CartLine is a cart item together with its computed line total.
type CartLine struct {
	CartItem
	WarrantyFee float64 `json:"warranty_fee"`
	LineTotal   float64 `json:"line_total"`
}

type User struct {
	ID            int     `json:"id"`
	Email         string  `json:"email"`
	Username      string  `json:"username"`
	Role          Role    `json:"role"`
	Balance       float64 `json:"balance"`
	Banned        bool    `json:"banned"`
	CreatedAt     string  `json:"created_at,omitempty"`
	LastLogin     string  `json:"last_login,omitempty"`
	RegisterIP    string  `json:"register_ip,omitempty"`
	LastIP        string  `json:"last_ip,omitempty"`
	SellerName    string  `json:"seller_name,omitempty"`
	SellerAvatar  string  `json:"seller_avatar,omitempty"`
	Authorization string  `json:"authorization,omitempty"`
}

type ProductStats struct {
	Level     int `json:"level"`
	Backpacks int `json:"backpacks"`
	VBucks    int `json:"vbucks"`
	Outfits   int `json:"outfits"`
	Pickaxes  int `json:"pickaxes"`
	Emotes    int `json:"emotes"`
	Gliders   int `json:"gliders"`
}

type Product struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	Price       float64      `json:"price"`
	AthenaIDs   []string     `json:"athena_ids"`
	Stats       ProductStats `json:"stats"`
	Platform    string       `json:"platform,omitempty"`
	Cosmetics   []string     `json:"cosmetics,omitempty"`
	Description string       `json:"description,omitempty"`
	SellerName  string       `json:"seller_name,omitempty"`
}

// Cosmetic is a catalog entry describing one in-game cosmetic.
type Cosmetic struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Rarity string `json:"rarity"`
	Type   string `json:"type"`
	Image  string `json:"image"`
}

// FilterState holds the marketplace selections. A nil MaxPrice means no
// upper bound; Platform "all" or empty disables the platform filter.
type FilterState struct {
	Search            string   `json:"search"`
	MinPrice          float64  `json:"minPrice"`
	MaxPrice          *float64 `json:"maxPrice"`
	Platform          string   `json:"platform"`
	SelectedCosmetics []string `json:"selectedCosmetics"`
	SelectedRarity    *string  `json:"selectedRarity"`
}

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Facets summarises a product list for the filter sidebar.
type Facets struct {
	Rarities   map[string]int `json:"rarities"`
	Platforms  map[string]int `json:"platforms"`
	PriceRange PriceRange     `json:"price_range"`
	Total      int            `json:"total"`
}
