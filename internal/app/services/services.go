package services

// Services defined in this package:
// - AuthService: registration, login and profile lookups
// - StudentService: student record CRUD, listings and statistics
