package models

// DashboardSummary aggregates an operator's booking activity.
type DashboardSummary struct {
	BookingsByStatus map[string]int `json:"bookingsByStatus"`
	GrossPaid        int64          `json:"grossPaid"`
	Refunded         int64          `json:"refunded"`
	NetRevenue       int64          `json:"netRevenue"`
	SeatsSold        int            `json:"seatsSold"`
	SeatCapacity     int            `json:"seatCapacity"`
	OccupancyPct     float64        `json:"occupancyPct"`
	ActiveTours      int            `json:"activeTours"`
	UpcomingSpots    int            `json:"upcomingSpots"`
	Customers        int            `json:"customers"`
}

type RevenuePoint struct {
	Month    string `json:"month"`
	Paid     int64  `json:"paid"`
	Refunded int64  `json:"refunded"`
	Net      int64  `json:"net"`
}

type TourPerformance struct {
	TourID     int64   `json:"tourId"`
	Title      string  `json:"title"`
	Bookings   int     `json:"bookings"`
	SeatsSold  int     `json:"seatsSold"`
	Capacity   int     `json:"capacity"`
	Occupancy  float64 `json:"occupancyPct"`
	NetRevenue int64   `json:"netRevenue"`
}
