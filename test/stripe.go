// Package test provides testing utilities for the subscription service: an
// in-process fake of the Stripe REST API and a stripe-mock test container.
package test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// StripeAPIKey is the key accepted by the fake Stripe server.
const StripeAPIKey = "sk_test_fake"

// stripeEpoch is the creation time of the first object of a fake server. Each
// new object is created one second after the previous one, so creation order
// is always reflected by the created field.
var stripeEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Unix()

type object map[string]any

// StripeServer is a stateful in-memory fake of the subset of the Stripe API
// used by the subscription service. It speaks the same wire format as Stripe:
// form encoded requests, JSON objects and list envelopes, Stripe error bodies.
type StripeServer struct {
	srv *httptest.Server

	mu             sync.Mutex
	seq            int64
	calls          map[string]int
	customers      map[string]object
	paymentMethods map[string]object
	products       map[string]object
	prices         map[string]object
	subscriptions  map[string]object
	sessions       map[string]object
}

// NewStripeServer starts a fake Stripe server. It must be closed with Close.
func NewStripeServer() *StripeServer {
	s := &StripeServer{
		calls:          map[string]int{},
		customers:      map[string]object{},
		paymentMethods: map[string]object{},
		products:       map[string]object{},
		prices:         map[string]object{},
		subscriptions:  map[string]object{},
		sessions:       map[string]object{},
	}

	r := chi.NewRouter()
	r.Use(s.authenticate)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/customers", s.createCustomer)
		r.Get("/customers", s.listCustomers)
		r.Get("/customers/{id}", s.getObject(s.customers, "customer"))
		r.Post("/customers/{id}", s.updateCustomer)
		r.Delete("/customers/{id}", s.deleteObject(s.customers, "customer"))
		r.Get("/customers/{id}/payment_methods", s.listCustomerPaymentMethods)

		r.Post("/payment_methods", s.createPaymentMethod)
		r.Get("/payment_methods", s.listPaymentMethods)
		r.Post("/payment_methods/{id}/attach", s.attachPaymentMethod)
		r.Post("/payment_methods/{id}/detach", s.detachPaymentMethod)

		r.Post("/products", s.createProduct)
		r.Get("/products", s.listProducts)
		r.Get("/products/{id}", s.getObject(s.products, "product"))
		r.Delete("/products/{id}", s.deleteObject(s.products, "product"))

		r.Post("/prices", s.createPrice)
		r.Get("/prices", s.listPrices)
		r.Post("/prices/{id}", s.updatePrice)

		r.Post("/subscriptions", s.createSubscription)
		r.Get("/subscriptions", s.listSubscriptions)
		r.Get("/subscriptions/{id}", s.getObject(s.subscriptions, "subscription"))

		r.Post("/checkout/sessions", s.createCheckoutSession)
	})
	s.srv = httptest.NewServer(r)
	return s
}

// URL returns the base url of the server, to be used as Stripe API url.
func (s *StripeServer) URL() string {
	return s.srv.URL
}

// Close stops the server.
func (s *StripeServer) Close() {
	s.srv.Close()
}

// Calls returns how many requests were received for the given method and
// route pattern, e.g. "POST /v1/prices".
func (s *StripeServer) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// Count returns how many objects of the given kind exist. Detached payment
// methods and deleted objects are not counted; canceled subscriptions are.
func (s *StripeServer) Count(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case "customer":
		return len(s.customers)
	case "payment_method":
		n := 0
		for _, pm := range s.paymentMethods {
			if pm["customer"] != nil {
				n++
			}
		}
		return n
	case "product":
		return len(s.products)
	case "price":
		return len(s.prices)
	case "subscription":
		return len(s.subscriptions)
	case "checkout.session":
		return len(s.sessions)
	default:
		return 0
	}
}

// AddPaymentMethod stores a card payment method attached to the customer and
// returns its id.
func (s *StripeServer) AddPaymentMethod(customerID string, expMonth, expYear int64, last4 string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	pm := s.newObject("pm", "payment_method")
	pm["type"] = "card"
	pm["customer"] = customerID
	pm["card"] = object{"exp_month": expMonth, "exp_year": expYear, "last4": last4, "brand": "visa"}
	s.paymentMethods[pm.id()] = pm
	return pm.id()
}

// AttachedPaymentMethods returns the ids of the payment methods attached to
// the customer, newest first.
func (s *StripeServer) AttachedPaymentMethods(customerID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for _, pm := range s.sorted(s.paymentMethods) {
		if pm["customer"] == customerID {
			ids = append(ids, pm.id())
		}
	}
	return ids
}

// SetSubscriptionStatus changes the status of a stored subscription.
func (s *StripeServer) SetSubscriptionStatus(id, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.subscriptions[id]; ok {
		sub["status"] = status
	}
}

// Object returns a copy of the stored object with the given id, or nil.
func (s *StripeServer) Object(id string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, store := range []map[string]object{
		s.customers, s.paymentMethods, s.products, s.prices, s.subscriptions, s.sessions,
	} {
		if obj, ok := store[id]; ok {
			out := map[string]any{}
			for k, v := range obj {
				out[k] = v
			}
			return out
		}
	}
	return nil
}

func (o object) id() string {
	id, _ := o["id"].(string)
	return id
}

func (o object) created() int64 {
	created, _ := o["created"].(int64)
	return created
}

// newObject returns an object with a fresh id and creation time. Callers hold
// the lock.
func (s *StripeServer) newObject(prefix, kind string) object {
	s.seq++
	return object{
		"id":       fmt.Sprintf("%s_%06d", prefix, s.seq),
		"object":   kind,
		"created":  stripeEpoch + s.seq,
		"livemode": false,
		"metadata": object{},
	}
}

// sorted returns the objects of a store newest first, the order of Stripe
// lists.
func (*StripeServer) sorted(store map[string]object) []object {
	out := make([]object, 0, len(store))
	for _, obj := range store {
		out = append(out, obj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].created() > out[j].created() })
	return out
}

func (s *StripeServer) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+StripeAPIKey {
			writeStripeError(w, http.StatusUnauthorized, "invalid_request_error", "",
				"Invalid API Key provided")
			return
		}
		if err := r.ParseForm(); err != nil {
			writeStripeError(w, http.StatusBadRequest, "invalid_request_error", "parameter_invalid", err.Error())
			return
		}
		s.mu.Lock()
		s.calls[r.Method+" "+routePattern(r.URL.Path)]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// objectID matches the ids generated by the server.
var objectID = regexp.MustCompile(`^[a-z_]+_\d{6}$`)

// routePattern replaces object ids in a path by {id}.
func routePattern(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if objectID.MatchString(part) {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Request-Id", "req_fake")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeStripeError(w http.ResponseWriter, status int, errType, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := object{"type": errType, "message": message}
	if code != "" {
		body["code"] = code
	}
	_ = json.NewEncoder(w).Encode(object{"error": body})
}

func writeMissing(w http.ResponseWriter, kind, id string) {
	writeStripeError(w, http.StatusNotFound, "invalid_request_error", "resource_missing",
		fmt.Sprintf("No such %s: '%s'", kind, id))
}

func writeList(w http.ResponseWriter, url string, items []object, limit int) {
	hasMore := false
	if limit > 0 && len(items) > limit {
		items = items[:limit]
		hasMore = true
	}
	if items == nil {
		items = []object{}
	}
	writeJSON(w, object{"object": "list", "url": url, "has_more": hasMore, "data": items})
}

func limitParam(r *http.Request) int {
	limit, err := strconv.Atoi(r.Form.Get("limit"))
	if err != nil || limit <= 0 {
		return 10
	}
	return limit
}

func intParam(r *http.Request, key string) (int64, bool) {
	v, err := strconv.ParseInt(r.Form.Get(key), 10, 64)
	return v, err == nil
}

// arrayParam returns the values of a form encoded array, indexed or not.
func arrayParam(r *http.Request, key string) []string {
	var out []string
	for i := 0; ; i++ {
		v, ok := r.Form[fmt.Sprintf("%s[%d]", key, i)]
		if !ok {
			break
		}
		out = append(out, v...)
	}
	return append(out, r.Form[key+"[]"]...)
}

func (s *StripeServer) getObject(store map[string]object, kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		s.mu.Lock()
		defer s.mu.Unlock()
		obj, ok := store[id]
		if !ok {
			writeMissing(w, kind, id)
			return
		}
		writeJSON(w, obj)
	}
}

func (s *StripeServer) deleteObject(store map[string]object, kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		s.mu.Lock()
		_, ok := store[id]
		delete(store, id)
		s.mu.Unlock()
		if !ok {
			writeMissing(w, kind, id)
			return
		}
		writeJSON(w, object{"id": id, "object": kind, "deleted": true})
	}
}

func (s *StripeServer) createCustomer(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.newObject("cus", "customer")
	c["email"] = r.Form.Get("email")
	c["balance"] = 0
	c["name"] = nil
	c["phone"] = nil
	c["address"] = nil
	c["description"] = nil
	c["currency"] = nil
	c["invoice_settings"] = object{"default_payment_method": nil}
	s.customers[c.id()] = c
	writeJSON(w, c)
}

func (s *StripeServer) listCustomers(w http.ResponseWriter, r *http.Request) {
	email := r.Form.Get("email")
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []object
	for _, c := range s.sorted(s.customers) {
		if email == "" || c["email"] == email {
			out = append(out, c)
		}
	}
	writeList(w, "/v1/customers", out, limitParam(r))
}

func (s *StripeServer) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok {
		writeMissing(w, "customer", id)
		return
	}
	if pm := r.Form.Get("invoice_settings[default_payment_method]"); pm != "" {
		if _, ok := s.paymentMethods[pm]; !ok {
			writeMissing(w, "payment_method", pm)
			return
		}
		c["invoice_settings"] = object{"default_payment_method": pm}
	}
	if email := r.Form.Get("email"); email != "" {
		c["email"] = email
	}
	writeJSON(w, c)
}

func (s *StripeServer) listCustomerPaymentMethods(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[id]; !ok {
		writeMissing(w, "customer", id)
		return
	}
	var out []object
	for _, pm := range s.sorted(s.paymentMethods) {
		if pm["customer"] == id {
			out = append(out, pm)
		}
	}
	writeList(w, "/v1/customers/"+id+"/payment_methods", out, limitParam(r))
}

func (s *StripeServer) createPaymentMethod(w http.ResponseWriter, r *http.Request) {
	if r.Form.Get("type") != "card" {
		writeStripeError(w, http.StatusBadRequest, "invalid_request_error", "parameter_invalid_empty",
			"Missing required param: type.")
		return
	}
	number := r.Form.Get("card[number]")
	expMonth, okMonth := intParam(r, "card[exp_month]")
	expYear, okYear := intParam(r, "card[exp_year]")
	if len(number) < 12 || !okMonth || !okYear {
		writeStripeError(w, http.StatusPaymentRequired, "card_error", "invalid_number",
			"Your card number is incorrect.")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pm := s.newObject("pm", "payment_method")
	pm["type"] = "card"
	pm["customer"] = nil
	pm["card"] = object{
		"exp_month": expMonth,
		"exp_year":  expYear,
		"last4":     number[len(number)-4:],
		"brand":     "visa",
	}
	s.paymentMethods[pm.id()] = pm
	writeJSON(w, pm)
}

func (s *StripeServer) listPaymentMethods(w http.ResponseWriter, r *http.Request) {
	customer := r.Form.Get("customer")
	typ := r.Form.Get("type")
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []object
	for _, pm := range s.sorted(s.paymentMethods) {
		if pm["customer"] == nil || (customer != "" && pm["customer"] != customer) {
			continue
		}
		if typ != "" && pm["type"] != typ {
			continue
		}
		out = append(out, pm)
	}
	writeList(w, "/v1/payment_methods", out, limitParam(r))
}

func (s *StripeServer) attachPaymentMethod(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	customer := r.Form.Get("customer")
	s.mu.Lock()
	defer s.mu.Unlock()
	pm, ok := s.paymentMethods[id]
	if !ok {
		writeMissing(w, "payment_method", id)
		return
	}
	if _, ok := s.customers[customer]; !ok {
		writeMissing(w, "customer", customer)
		return
	}
	pm["customer"] = customer
	writeJSON(w, pm)
}

func (s *StripeServer) detachPaymentMethod(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	pm, ok := s.paymentMethods[id]
	if !ok {
		writeMissing(w, "payment_method", id)
		return
	}
	if pm["customer"] == nil {
		writeStripeError(w, http.StatusBadRequest, "invalid_request_error", "payment_method_unexpected_state",
			"The payment method you provided is not attached to a customer so detachment is impossible.")
		return
	}
	pm["customer"] = nil
	writeJSON(w, pm)
}

func (s *StripeServer) createProduct(w http.ResponseWriter, r *http.Request) {
	name := r.Form.Get("name")
	if name == "" {
		writeStripeError(w, http.StatusBadRequest, "invalid_request_error", "parameter_missing",
			"Missing required param: name.")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.newObject("prod", "product")
	p["name"] = name
	p["url"] = r.Form.Get("url")
	p["active"] = true
	s.products[p.id()] = p
	writeJSON(w, p)
}

func (s *StripeServer) listProducts(w http.ResponseWriter, r *http.Request) {
	url := r.Form.Get("url")
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []object
	for _, p := range s.sorted(s.products) {
		if url == "" || p["url"] == url {
			out = append(out, p)
		}
	}
	writeList(w, "/v1/products", out, limitParam(r))
}

func (s *StripeServer) createPrice(w http.ResponseWriter, r *http.Request) {
	amount, ok := intParam(r, "unit_amount")
	if !ok {
		writeStripeError(w, http.StatusBadRequest, "invalid_request_error", "parameter_missing",
			"Missing required param: unit_amount.")
		return
	}
	product := r.Form.Get("product")
	interval := r.Form.Get("recurring[interval]")
	count, ok := intParam(r, "recurring[interval_count]")
	if !ok {
		count = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[product]; !ok {
		writeMissing(w, "product", product)
		return
	}
	lookupKey := r.Form.Get("lookup_key")
	if lookupKey != "" {
		for _, other := range s.prices {
			if other["lookup_key"] != lookupKey {
				continue
			}
			if r.Form.Get("transfer_lookup_key") != "true" {
				writeStripeError(w, http.StatusBadRequest, "invalid_request_error", "lookup_key_exists",
					fmt.Sprintf("A price (`%s`) already uses that lookup key.", other.id()))
				return
			}
			other["lookup_key"] = nil
		}
	}

	p := s.newObject("price", "price")
	p["unit_amount"] = amount
	p["currency"] = r.Form.Get("currency")
	p["product"] = product
	p["active"] = true
	p["type"] = "one_time"
	p["recurring"] = nil
	if interval != "" {
		p["type"] = "recurring"
		p["recurring"] = object{"interval": interval, "interval_count": count, "usage_type": "licensed"}
	}
	if lookupKey != "" {
		p["lookup_key"] = lookupKey
	} else {
		p["lookup_key"] = nil
	}
	s.prices[p.id()] = p
	writeJSON(w, p)
}

func (s *StripeServer) listPrices(w http.ResponseWriter, r *http.Request) {
	keys := arrayParam(r, "lookup_keys")
	active := r.Form.Get("active")
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []object
	for _, p := range s.sorted(s.prices) {
		if active != "" && fmt.Sprint(p["active"]) != active {
			continue
		}
		if len(keys) > 0 {
			key, _ := p["lookup_key"].(string)
			if key == "" || !contains(keys, key) {
				continue
			}
		}
		out = append(out, p)
	}
	writeList(w, "/v1/prices", out, limitParam(r))
}

func (s *StripeServer) updatePrice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prices[id]
	if !ok {
		writeMissing(w, "price", id)
		return
	}
	if active := r.Form.Get("active"); active != "" {
		p["active"] = active == "true"
	}
	if _, ok := r.Form["lookup_key"]; ok {
		if key := r.Form.Get("lookup_key"); key != "" {
			p["lookup_key"] = key
		} else {
			p["lookup_key"] = nil
		}
	}
	writeJSON(w, p)
}

func (s *StripeServer) createSubscription(w http.ResponseWriter, r *http.Request) {
	customer := r.Form.Get("customer")
	var prices []string
	for i := 0; ; i++ {
		v := r.Form.Get(fmt.Sprintf("items[%d][price]", i))
		if v == "" {
			break
		}
		prices = append(prices, v)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[customer]; !ok {
		writeMissing(w, "customer", customer)
		return
	}
	if len(prices) == 0 {
		writeStripeError(w, http.StatusBadRequest, "invalid_request_error", "parameter_missing",
			"Missing required param: items.")
		return
	}

	sub := s.newObject("sub", "subscription")
	created := sub.created()
	periodEnd := time.Unix(created, 0).AddDate(0, 1, 0).Unix()
	var items []object
	for _, priceID := range prices {
		price, ok := s.prices[priceID]
		if !ok {
			writeMissing(w, "price", priceID)
			return
		}
		s.seq++
		items = append(items, object{
			"id":                   fmt.Sprintf("si_%06d", s.seq),
			"object":               "subscription_item",
			"quantity":             1,
			"price":                price,
			"current_period_start": created,
			"current_period_end":   periodEnd,
		})
	}
	status := "active"
	if c := s.customers[customer]; c["invoice_settings"] == nil ||
		c["invoice_settings"].(object)["default_payment_method"] == nil {
		status = "incomplete"
	}
	sub["customer"] = customer
	sub["status"] = status
	sub["collection_method"] = "charge_automatically"
	sub["default_payment_method"] = nil
	sub["days_until_due"] = nil
	sub["latest_invoice"] = fmt.Sprintf("in_%06d", s.seq)
	sub["start_date"] = created
	sub["ended_at"] = nil
	sub["canceled_at"] = nil
	sub["items"] = object{
		"object":   "list",
		"data":     items,
		"has_more": false,
		"url":      "/v1/subscription_items?subscription=" + sub.id(),
	}
	s.subscriptions[sub.id()] = sub
	writeJSON(w, sub)
}

func (s *StripeServer) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	customer := r.Form.Get("customer")
	status := r.Form.Get("status")
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []object
	for _, sub := range s.sorted(s.subscriptions) {
		if customer != "" && sub["customer"] != customer {
			continue
		}
		switch status {
		case "all":
		case "":
			// Stripe hides canceled subscriptions unless asked for
			if sub["status"] == "canceled" {
				continue
			}
		default:
			if sub["status"] != status {
				continue
			}
		}
		out = append(out, sub)
	}
	writeList(w, "/v1/subscriptions", out, limitParam(r))
}

func (s *StripeServer) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	if r.Form.Get("mode") != "subscription" {
		writeStripeError(w, http.StatusBadRequest, "invalid_request_error", "parameter_invalid",
			"Only subscription mode is supported.")
		return
	}
	price := r.Form.Get("line_items[0][price]")
	customer := r.Form.Get("customer")
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prices[price]
	if !ok {
		writeMissing(w, "price", price)
		return
	}
	quantity, _ := intParam(r, "line_items[0][quantity]")
	cs := s.newObject("cs_test", "checkout.session")
	cs["url"] = "https://checkout.stripe.com/c/pay/" + cs.id()
	cs["success_url"] = r.Form.Get("success_url")
	cs["cancel_url"] = r.Form.Get("cancel_url")
	cs["mode"] = "subscription"
	cs["payment_method_types"] = arrayParam(r, "payment_method_types")
	cs["payment_intent"] = nil
	cs["payment_status"] = "unpaid"
	cs["status"] = "open"
	cs["customer"] = customer
	cs["customer_email"] = nil
	cs["amount_total"] = p["unit_amount"].(int64) * quantity
	s.sessions[cs.id()] = cs
	writeJSON(w, cs)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
