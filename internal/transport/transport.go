package transport

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/hotel-booking/internal/transport/middleware"
)

func InitRoutes(roomHandler *RoomHandler, bookingHandler *BookingHandler, paymentHandler *PaymentHandler) *gin.Engine {

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(30))
	router.Use(middleware.Identity())

	// API routes
	api := router.Group("/api/v1")
	{
		// Room routes
		rooms := api.Group("/rooms")
		{
			rooms.GET("/:id/availability", roomHandler.CheckAvailability)
			rooms.GET("/:id/quote", roomHandler.QuotePrice)
			rooms.GET("/:id/history", roomHandler.GetRoomHistory)
		}

		// Hotel routes
		hotels := api.Group("/hotels")
		{
			hotels.GET("/:id/available-rooms", roomHandler.GetAvailableRooms)
		}

		// Booking routes
		bookings := api.Group("/bookings")
		{
			bookings.POST("", bookingHandler.CreateBooking)
			bookings.GET("", bookingHandler.ListBookings)
			bookings.GET("/:id", bookingHandler.GetBooking)
			bookings.PUT("/:id", bookingHandler.UpdateBooking)
			bookings.PUT("/:id/status", bookingHandler.UpdateStatus)
			bookings.POST("/:id/cancel", bookingHandler.CancelBooking)
			bookings.POST("/:id/checkin", bookingHandler.CheckIn)
			bookings.POST("/:id/checkout", bookingHandler.CheckOut)
		}

		// Payment routes
		payments := api.Group("/payments")
		{
			payments.POST("", paymentHandler.CreatePayment)
			payments.GET("/vnpay-return", paymentHandler.HandleReturn)
			payments.GET("/vnpay-ipn", paymentHandler.HandleIPN)
			payments.GET("/:id", paymentHandler.GetPayment)
			payments.GET("/:id/query", paymentHandler.QueryPayment)
			payments.POST("/:id/refund", paymentHandler.Refund)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	return router
}
