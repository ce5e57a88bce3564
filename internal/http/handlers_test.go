package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/student-rentals/internal/events"
	"github.com/example/student-rentals/internal/persistence"
	"github.com/example/student-rentals/internal/persistence/memory"
	"github.com/example/student-rentals/internal/testfixtures"
)

type apiHarness struct {
	t         *testing.T
	handler   http.Handler
	publisher *testfixtures.RecordingPublisher
	clock     *testfixtures.Clock
}

const tokenTTL = time.Hour

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := testfixtures.NewClock(time.Time{})
	factory := testfixtures.NewServiceFactory(testfixtures.WithLogger(logger), testfixtures.WithClock(clock))
	catalog := memory.NewCatalog()
	publisher := &testfixtures.RecordingPublisher{}

	accounts := factory.NewAccountService(memory.NewAccounts())
	tokens := factory.NewTokenService("handler-test-secret", tokenTTL)
	handler := NewRouter(RouterConfig{
		Accounts: NewAccountHandler(accounts, logger),
		Listings: NewListingHandler(factory.NewListingService(catalog), logger),
		Bookings: NewBookingHandler(factory.NewBookingService(testfixtures.BookingServiceDeps{
			Rooms:        catalog,
			Reservations: memory.NewReservations(),
			Publisher:    publisher,
		}), logger),
		Search:        NewSearchHandler(factory.NewSearchService(catalog), logger),
		Tokens:        NewTokenHandler(tokens, logger),
		Authenticator: accounts,
		TokenVerifier: tokens,
		Logger:        logger,
		Middleware:    []func(http.Handler) http.Handler{RequestLogger(logger)},
	})

	return &apiHarness{t: t, handler: handler, publisher: publisher, clock: clock}
}

func (h *apiHarness) do(method, path string, who *testfixtures.AccountFixture, body any) *httptest.ResponseRecorder {
	h.t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			payload, err := json.Marshal(b)
			if err != nil {
				h.t.Fatalf("encode body: %v", err)
			}
			reader = bytes.NewReader(payload)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if who != nil {
		req.SetBasicAuth(who.Email, who.Password)
	}
	return h.serve(req)
}

// doWithToken sends the request with a bearer token instead of a password.
func (h *apiHarness) doWithToken(method, path, token string, body string) *httptest.ResponseRecorder {
	h.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+token)
	return h.serve(req)
}

func (h *apiHarness) serve(req *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	h.handler.ServeHTTP(recorder, req)
	return recorder
}

func (h *apiHarness) registerStudent(fixture testfixtures.AccountFixture) accountDTO {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/students", nil, fixture.StudentRegistration())
	expectStatus(h.t, rec, http.StatusCreated)
	return decode[accountResponse](h.t, rec).Account
}

func (h *apiHarness) registerHomeowner(fixture testfixtures.AccountFixture) accountDTO {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/homeowners", nil, fixture.HomeownerRegistration())
	expectStatus(h.t, rec, http.StatusCreated)
	return decode[accountResponse](h.t, rec).Account
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

const (
	roomBody   = `{"type":"single","monthly_rent":450,"amenities":["desk"],"available_from":"2025-09-01","available_to":"2025-12-20"}`
	septStay   = `"start_date":"2025-09-01","end_date":"2025-09-30"`
	midSepStay = `"start_date":"2025-09-15","end_date":"2025-10-15"`
)

// listedRoom creates a property with one room for owner and returns the room.
func (h *apiHarness) listedRoom(owner *testfixtures.AccountFixture) roomDTO {
	h.t.Helper()

	rec := h.do(http.MethodPost, "/properties", owner, `{"address":"1 Hyde Park Road","city":"Leeds"}`)
	expectStatus(h.t, rec, http.StatusCreated)
	property := decode[propertyResponse](h.t, rec).Property

	rec = h.do(http.MethodPost, "/properties/"+property.ID+"/rooms", owner, roomBody)
	expectStatus(h.t, rec, http.StatusCreated)
	return decode[roomResponse](h.t, rec).Room
}

func TestAccountHandlers(t *testing.T) {
	t.Parallel()

	t.Run("registers accounts and rejects duplicate emails", func(t *testing.T) {
		t.Parallel()
		api := newAPIHarness(t)

		student := testfixtures.NewStudentFixture()
		account := api.registerStudent(student)
		if account.Role != string(persistence.RoleStudent) || account.University != student.University {
			t.Fatalf("unexpected account: %#v", account)
		}

		rec := api.do(http.MethodPost, "/homeowners", nil, testfixtures.NewHomeownerFixture(
			testfixtures.WithAccountEmail(student.Email),
		).HomeownerRegistration())
		expectStatus(t, rec, http.StatusConflict)
		if got := decode[errorResponse](t, rec).ErrorCode; got != "ALREADY_EXISTS" {
			t.Fatalf("expected ALREADY_EXISTS, got %q", got)
		}
	})

	t.Run("reports invalid registration fields", func(t *testing.T) {
		t.Parallel()
		api := newAPIHarness(t)

		rec := api.do(http.MethodPost, "/students", nil, `{"name":"Ada","email":"not-an-email","password":"pw"}`)
		expectStatus(t, rec, http.StatusUnprocessableEntity)
		body := decode[errorResponse](t, rec)
		if _, ok := body.Errors["email"]; !ok {
			t.Fatalf("expected an email error, got %#v", body.Errors)
		}

		rec = api.do(http.MethodPost, "/students", nil, `{`)
		expectStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("returns the authenticated account", func(t *testing.T) {
		t.Parallel()
		api := newAPIHarness(t)

		owner := testfixtures.NewHomeownerFixture()
		registered := api.registerHomeowner(owner)

		rec := api.do(http.MethodGet, "/me", &owner, nil)
		expectStatus(t, rec, http.StatusOK)
		me := decode[accountResponse](t, rec).Account
		if me.ID != registered.ID || me.ContactNumber != owner.ContactNumber {
			t.Fatalf("unexpected account: %#v", me)
		}
	})
}

func TestAuthentication(t *testing.T) {
	t.Parallel()

	api := newAPIHarness(t)
	student := testfixtures.NewStudentFixture()
	api.registerStudent(student)

	t.Run("requires credentials", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/me", nil, nil)
		expectStatus(t, rec, http.StatusUnauthorized)
		if rec.Header().Get("WWW-Authenticate") == "" {
			t.Fatal("expected a WWW-Authenticate challenge")
		}
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		wrong := testfixtures.NewStudentFixture(
			testfixtures.WithAccountEmail(student.Email),
			testfixtures.WithAccountPassword("nope"),
		)
		rec := api.do(http.MethodGet, "/me", &wrong, nil)
		expectStatus(t, rec, http.StatusUnauthorized)
		if got := decode[errorResponse](t, rec).ErrorCode; got != "INVALID_CREDENTIALS" {
			t.Fatalf("expected INVALID_CREDENTIALS, got %q", got)
		}
	})

	t.Run("rejects the wrong role", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/properties", &student, `{"address":"x","city":"Leeds"}`)
		expectStatus(t, rec, http.StatusForbidden)
		if got := decode[errorResponse](t, rec).ErrorCode; got != "WRONG_ROLE" {
			t.Fatalf("expected WRONG_ROLE, got %q", got)
		}
	})
}

func TestTokenHandlers(t *testing.T) {
	t.Parallel()

	api := newAPIHarness(t)
	owner := testfixtures.NewHomeownerFixture()
	student := testfixtures.NewStudentFixture()
	api.registerHomeowner(owner)
	studentAccount := api.registerStudent(student)
	room := api.listedRoom(&owner)

	rec := api.do(http.MethodPost, "/tokens", &student, nil)
	expectStatus(t, rec, http.StatusCreated)
	issued := decode[tokenResponse](t, rec)
	wantExpiry := api.clock.Now().Add(tokenTTL).UTC().Format(time.RFC3339)
	if issued.Token == "" || issued.TokenType != "Bearer" || issued.ExpiresAt != wantExpiry {
		t.Fatalf("unexpected token response: %#v", issued)
	}

	t.Run("requires a password to mint a token", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/tokens", nil, nil)
		expectStatus(t, rec, http.StatusUnauthorized)

		rec = api.doWithToken(http.MethodPost, "/tokens", issued.Token, "")
		expectStatus(t, rec, http.StatusUnauthorized)
	})

	t.Run("authenticates a booking request", func(t *testing.T) {
		rec := api.doWithToken(http.MethodPost, "/bookings", issued.Token, `{"room_id":"`+room.ID+`",`+septStay+`}`)
		expectStatus(t, rec, http.StatusCreated)
		if got := decode[bookingResponse](t, rec).Booking.StudentID; got != studentAccount.ID {
			t.Fatalf("expected booking for %s, got %s", studentAccount.ID, got)
		}

		rec = api.doWithToken(http.MethodPost, "/properties", issued.Token, `{"address":"x","city":"Leeds"}`)
		expectStatus(t, rec, http.StatusForbidden)
	})

	t.Run("rejects tampered tokens", func(t *testing.T) {
		rec := api.doWithToken(http.MethodGet, "/me", issued.Token+"x", "")
		expectStatus(t, rec, http.StatusUnauthorized)
		if got := decode[errorResponse](t, rec).ErrorCode; got != "INVALID_TOKEN" {
			t.Fatalf("expected INVALID_TOKEN, got %q", got)
		}
	})

	t.Run("rejects expired tokens", func(t *testing.T) {
		api.clock.Advance(tokenTTL + time.Minute)

		rec := api.doWithToken(http.MethodGet, "/me", issued.Token, "")
		expectStatus(t, rec, http.StatusUnauthorized)
		if got := decode[errorResponse](t, rec).ErrorCode; got != "INVALID_TOKEN" {
			t.Fatalf("expected INVALID_TOKEN, got %q", got)
		}

		rec = api.do(http.MethodGet, "/me", &student, nil)
		expectStatus(t, rec, http.StatusOK)
	})
}

func TestListingHandlers(t *testing.T) {
	t.Parallel()

	api := newAPIHarness(t)
	owner := testfixtures.NewHomeownerFixture()
	other := testfixtures.NewHomeownerFixture()
	api.registerHomeowner(owner)
	api.registerHomeowner(other)

	rec := api.do(http.MethodPost, "/properties", &owner, `{"address":"1 Hyde Park Road","city":"Leeds"}`)
	expectStatus(t, rec, http.StatusCreated)
	property := decode[propertyResponse](t, rec).Property
	if property.RoomIDs == nil || len(property.RoomIDs) != 0 {
		t.Fatalf("expected an empty room list, got %#v", property.RoomIDs)
	}

	rec = api.do(http.MethodPost, "/properties/"+property.ID+"/rooms", &owner, roomBody)
	expectStatus(t, rec, http.StatusCreated)
	room := decode[roomResponse](t, rec).Room
	if room.Type != string(persistence.RoomTypeSingle) || room.City != "Leeds" || room.AvailableFrom != "2025-09-01" {
		t.Fatalf("unexpected room: %#v", room)
	}

	t.Run("lists owned properties and rooms", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/properties", &owner, nil)
		expectStatus(t, rec, http.StatusOK)
		properties := decode[listPropertiesResponse](t, rec).Properties
		if len(properties) != 1 || len(properties[0].RoomIDs) != 1 || properties[0].RoomIDs[0] != room.ID {
			t.Fatalf("unexpected properties: %#v", properties)
		}

		rec = api.do(http.MethodGet, "/properties/"+property.ID+"/rooms", &owner, nil)
		expectStatus(t, rec, http.StatusOK)
		if rooms := decode[listRoomsResponse](t, rec).Rooms; len(rooms) != 1 {
			t.Fatalf("expected one room, got %#v", rooms)
		}
	})

	t.Run("updates a room", func(t *testing.T) {
		rec := api.do(http.MethodPatch, "/properties/"+property.ID+"/rooms/"+room.ID, &owner, `{"monthly_rent":475,"amenities":[]}`)
		expectStatus(t, rec, http.StatusOK)
		updated := decode[roomResponse](t, rec).Room
		if updated.MonthlyRent != 475 || updated.Amenities == nil || len(updated.Amenities) != 0 {
			t.Fatalf("unexpected update: %#v", updated)
		}
	})

	t.Run("rejects an invalid room", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/properties/"+property.ID+"/rooms", &owner, `{"type":"triple","monthly_rent":-1,"available_from":"2025-09-01","available_to":"2025-12-20"}`)
		expectStatus(t, rec, http.StatusUnprocessableEntity)
		body := decode[errorResponse](t, rec)
		if _, ok := body.Errors["type"]; !ok {
			t.Fatalf("expected a type error, got %#v", body.Errors)
		}
	})

	t.Run("hides properties of other owners", func(t *testing.T) {
		rec := api.do(http.MethodPatch, "/properties/"+property.ID, &other, `{"description":"mine now"}`)
		if rec.Code != http.StatusForbidden && rec.Code != http.StatusNotFound {
			t.Fatalf("expected 403 or 404, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("removes rooms and properties", func(t *testing.T) {
		rec := api.do(http.MethodDelete, "/properties/"+property.ID+"/rooms/"+room.ID, &owner, nil)
		expectStatus(t, rec, http.StatusNoContent)

		rec = api.do(http.MethodDelete, "/properties/"+property.ID, &owner, nil)
		expectStatus(t, rec, http.StatusNoContent)

		rec = api.do(http.MethodGet, "/properties", &owner, nil)
		expectStatus(t, rec, http.StatusOK)
		if properties := decode[listPropertiesResponse](t, rec).Properties; len(properties) != 0 {
			t.Fatalf("expected no properties, got %#v", properties)
		}
	})
}

func TestBookingHandlers(t *testing.T) {
	t.Parallel()

	api := newAPIHarness(t)
	owner := testfixtures.NewHomeownerFixture()
	first := testfixtures.NewStudentFixture()
	second := testfixtures.NewStudentFixture()
	api.registerHomeowner(owner)
	firstAccount := api.registerStudent(first)
	api.registerStudent(second)

	room := api.listedRoom(&owner)

	rec := api.do(http.MethodPost, "/bookings", &first, `{"room_id":"`+room.ID+`",`+septStay+`}`)
	expectStatus(t, rec, http.StatusCreated)
	september := decode[bookingResponse](t, rec).Booking
	if september.Status != string(persistence.BookingPending) || september.StudentID != firstAccount.ID {
		t.Fatalf("unexpected booking: %#v", september)
	}

	rec = api.do(http.MethodPost, "/bookings", &second, `{"room_id":"`+room.ID+`",`+midSepStay+`}`)
	expectStatus(t, rec, http.StatusCreated)
	overlapping := decode[bookingResponse](t, rec).Booking

	t.Run("lists pending requests for the owner", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/bookings?status=pending", &owner, nil)
		expectStatus(t, rec, http.StatusOK)
		if bookings := decode[listBookingsResponse](t, rec).Bookings; len(bookings) != 2 {
			t.Fatalf("expected two pending bookings, got %#v", bookings)
		}

		rec = api.do(http.MethodGet, "/bookings?status=pending", &first, nil)
		expectStatus(t, rec, http.StatusForbidden)
	})

	t.Run("rejects unsupported status filters", func(t *testing.T) {
		for _, who := range []*testfixtures.AccountFixture{&owner, &first} {
			rec := api.do(http.MethodGet, "/bookings?status=accepted", who, nil)
			expectStatus(t, rec, http.StatusUnprocessableEntity)
			body := decode[errorResponse](t, rec)
			if body.ErrorCode != "VALIDATION_FAILED" || body.Errors["status"] == "" {
				t.Fatalf("expected status validation error, got %#v", body)
			}
		}
	})

	t.Run("accepts and then refuses an overlapping acceptance", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/bookings/"+september.ID+"/decision", &owner, `{"decision":"accepted"}`)
		expectStatus(t, rec, http.StatusOK)
		if got := decode[bookingResponse](t, rec).Booking.Status; got != string(persistence.BookingAccepted) {
			t.Fatalf("expected ACCEPTED, got %q", got)
		}

		rec = api.do(http.MethodPost, "/bookings/"+overlapping.ID+"/decision", &owner, `{"decision":"ACCEPTED"}`)
		expectStatus(t, rec, http.StatusConflict)
		if got := decode[errorResponse](t, rec).ErrorCode; got != "BOOKING_CONFLICT" {
			t.Fatalf("expected BOOKING_CONFLICT, got %q", got)
		}

		rec = api.do(http.MethodPost, "/bookings", &second, `{"room_id":"`+room.ID+`",`+midSepStay+`}`)
		expectStatus(t, rec, http.StatusConflict)
	})

	t.Run("rejects unknown decisions", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/bookings/"+overlapping.ID+"/decision", &owner, `{"decision":"maybe"}`)
		expectStatus(t, rec, http.StatusUnprocessableEntity)
	})

	t.Run("lists the student's own bookings", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/bookings", &first, nil)
		expectStatus(t, rec, http.StatusOK)
		bookings := decode[listBookingsResponse](t, rec).Bookings
		if len(bookings) != 1 || bookings[0].ID != september.ID {
			t.Fatalf("unexpected bookings: %#v", bookings)
		}
	})

	t.Run("publishes booking events", func(t *testing.T) {
		recorded := api.publisher.Events()
		if len(recorded) != 3 {
			t.Fatalf("expected three events, got %#v", recorded)
		}
		if recorded[2].Type != events.BookingAccepted || recorded[2].BookingID != september.ID {
			t.Fatalf("unexpected last event: %#v", recorded[2])
		}
	})
}

func TestSearchHandler(t *testing.T) {
	t.Parallel()

	api := newAPIHarness(t)
	owner := testfixtures.NewHomeownerFixture()
	api.registerHomeowner(owner)
	room := api.listedRoom(&owner)

	t.Run("finds rooms by city", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/rooms?city=LEEDS&max_rent=500&type=single", nil, nil)
		expectStatus(t, rec, http.StatusOK)
		rooms := decode[listRoomsResponse](t, rec).Rooms
		if len(rooms) != 1 || rooms[0].ID != room.ID {
			t.Fatalf("unexpected rooms: %#v", rooms)
		}
	})

	t.Run("rejects malformed query parameters", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/rooms?min_rent=cheap&start_date=01/09/2025", nil, nil)
		expectStatus(t, rec, http.StatusUnprocessableEntity)
		body := decode[errorResponse](t, rec)
		if body.Errors["min_rent"] == "" || body.Errors["start_date"] == "" {
			t.Fatalf("expected min_rent and start_date errors, got %#v", body.Errors)
		}
	})
}

func TestRouterFallbacks(t *testing.T) {
	t.Parallel()

	api := newAPIHarness(t)

	rec := api.do(http.MethodGet, "/nowhere", nil, nil)
	expectStatus(t, rec, http.StatusNotFound)
	if got := decode[errorResponse](t, rec).Message; got != statusMessage(http.StatusNotFound) {
		t.Fatalf("unexpected message %q", got)
	}
	if rec.Header().Get(HeaderRequestID) == "" {
		t.Fatal("expected a request id on every response")
	}
}
