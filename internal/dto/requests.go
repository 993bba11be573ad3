package dto

type LoginRequest struct {
	User     string `json:"user" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type SelectBakeryRequest struct {
	BakeryID string `json:"bakeryId" validate:"required"`
}

type AddCartItemRequest struct {
	MenuItemID string `json:"menuItemId" validate:"required"`
}

type PlaceOrderRequest struct {
	Table string `json:"table" validate:"omitempty,max=10"`
}

type CreateBakeryRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type CreateMenuItemRequest struct {
	Name  string   `json:"name" validate:"required,max=100"`
	Price *float64 `json:"price" validate:"required,gte=0"`
}
