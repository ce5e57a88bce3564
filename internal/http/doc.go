// Package http exposes the rental services as a JSON API routed by httprouter.
//
// The router exposes the following endpoints:
//   - POST /students, POST /homeowners: public registration. Bodies mirror
//     application.StudentRegistration and application.HomeownerRegistration.
//     Response: {"account": accountDTO}.
//   - GET /me: the authenticated account with its role profile.
//   - POST /tokens: exchanges Basic credentials for a signed bearer token,
//     {"token","token_type","expires_at"}. Registered only when a token
//     secret is configured.
//   - GET /rooms: public room search. Query parameters city, min_rent, max_rent,
//     type, start_date and end_date map to application.SearchCriteria.
//   - GET/POST /properties, PATCH/DELETE /properties/:propertyID: the calling
//     homeowner's listings, exchanging propertyDTO.
//   - GET/POST /properties/:propertyID/rooms, PATCH/DELETE
//     /properties/:propertyID/rooms/:roomID: rooms of an owned property,
//     exchanging roomDTO.
//   - POST /bookings (student), GET /bookings (either role), GET /bookings
//     ?status=pending (homeowner) and POST /bookings/:bookingID/decision
//     (homeowner), exchanging bookingDTO. Any other status filter is a 422.
//
// Protected endpoints authenticate with HTTP Basic credentials or, when tokens
// are enabled, an "Authorization: Bearer" token from POST /tokens.
// Errors are returned as {"error_code","message","errors"} where errors maps
// field names to messages.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
