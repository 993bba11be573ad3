package controller

import (
	"padaria/internal/cart"
	"padaria/internal/domain"
	"padaria/internal/dto"
	"padaria/internal/storefront"

	"github.com/shopspring/decimal"
)

func toBakeryResponse(b domain.Bakery) dto.BakeryResponse {
	return dto.BakeryResponse{ID: b.ID, Name: b.Name, Description: b.Description}
}

func toMenuItemResponse(item domain.MenuItem) dto.MenuItemResponse {
	return dto.MenuItemResponse{ID: item.ID, Name: item.Name, Price: item.Price, Image: item.Image}
}

func toOrderResponse(order domain.Order) dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, dto.OrderItemResponse{
			ID:       item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		})
	}

	return dto.OrderResponse{
		ID:        order.ID,
		RemoteID:  order.RemoteID,
		BakeryID:  order.BakeryID,
		Table:     order.Table,
		Status:    string(order.Status),
		Items:     items,
		Total:     order.Total().StringFixed(2),
		CreatedAt: order.CreatedAt.UTC(),
	}
}

func cartResponse(traceID string, c *cart.Cart) dto.CartResponse {
	lines := c.Items()
	response := dto.CartResponse{
		TraceID: traceID,
		Lines:   make([]dto.CartLineResponse, 0, len(lines)),
	}

	total := decimal.Zero
	for _, line := range lines {
		subtotal := domain.OrderItem{Price: line.Item.Price, Quantity: line.Quantity}.Subtotal()
		total = total.Add(subtotal)
		response.Lines = append(response.Lines, dto.CartLineResponse{
			Item:     toMenuItemResponse(line.Item),
			Quantity: line.Quantity,
			Subtotal: subtotal.StringFixed(2),
		})
	}
	response.Total = total.StringFixed(2)
	return response
}

func sessionResponse(traceID string, s *storefront.Session) dto.SessionResponse {
	response := dto.SessionResponse{
		TraceID:   traceID,
		SessionID: s.ID,
		IsAdmin:   s.IsAdmin(),
	}
	if b, ok := s.Engine.Snapshot().Selection.Bakery(); ok {
		br := toBakeryResponse(b)
		response.Bakery = &br
	}
	return response
}
