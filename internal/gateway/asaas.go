// Package gateway intègre le prestataire de facturation Asaas.
// Documentation : https://docs.asaas.com/
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrUnavailable : panne transport ou timeout côté prestataire. Le client
// peut réessayer ; à exposer en 502/503, jamais en 400.
var ErrUnavailable = errors.New("prestataire de paiement injoignable")

// Error : requête refusée par le prestataire (validation, solde, carte...).
// Message du prestataire transmis tel quel au client.
type Error struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *Error) Error() string {
	if e.Description != "" {
		return e.Description
	}
	return fmt.Sprintf("erreur prestataire de paiement (HTTP %d)", e.StatusCode)
}

// Statuts de cobrança renvoyés par Asaas.
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusReceived  = "RECEIVED"
	StatusOverdue   = "OVERDUE"
	StatusRefunded  = "REFUNDED"
)

// Types de facturation Asaas.
const (
	billingPix    = "PIX"
	billingCard   = "CREDIT_CARD"
	billingBoleto = "BOLETO"
)

// Config : configuration explicite construite au démarrage et passée au
// client. Aucune lecture d'environnement à l'appel.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client encapsule l'API REST Asaas. Toute défaillance ressort en erreur
// typée, jamais en panic à travers la frontière du checkout.
type Client struct {
	http *resty.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("access_token", cfg.APIKey)
	return &Client{http: httpClient}
}

type asaasError struct {
	Errors []struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"errors"`
}

// CustomerRequest : création/liaison d'un client côté prestataire.
// ExternalReference porte l'ID utilisateur interne.
type CustomerRequest struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	CpfCnpj           string `json:"cpfCnpj"`
	Phone             string `json:"phone,omitempty"`
	Address           string `json:"address,omitempty"`
	AddressNumber     string `json:"addressNumber,omitempty"`
	Complement        string `json:"complement,omitempty"`
	Province          string `json:"province,omitempty"`
	PostalCode        string `json:"postalCode,omitempty"`
	ExternalReference string `json:"externalReference,omitempty"`
}

type Customer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	CpfCnpj string `json:"cpfCnpj"`
}

// Payment : vue normalisée d'une cobrança Asaas.
type Payment struct {
	ID                  string  `json:"id"`
	Status              string  `json:"status"`
	Value               float64 `json:"value"`
	NetValue            float64 `json:"netValue,omitempty"`
	DueDate             string  `json:"dueDate,omitempty"`
	InvoiceURL          string  `json:"invoiceUrl,omitempty"`
	BankSlipURL         string  `json:"bankSlipUrl,omitempty"`
	IdentificationField string  `json:"identificationField,omitempty"`
	NossoNumero         string  `json:"nossoNumero,omitempty"`
	PaymentDate         string  `json:"paymentDate,omitempty"`
	ConfirmedDate       string  `json:"confirmedDate,omitempty"`
	ExternalReference   string  `json:"externalReference,omitempty"`
	Deleted             bool    `json:"deleted,omitempty"`
}

// PixDetail : payload copia-e-cola + QR code encodé du PIX.
type PixDetail struct {
	Payload        string `json:"payload"`
	EncodedImage   string `json:"encodedImage"`
	ExpirationDate string `json:"expirationDate,omitempty"`
}

// PixPayment agrège la cobrança et son QR code.
type PixPayment struct {
	Payment
	Pix PixDetail `json:"pix"`
}

// ChargeRequest : champs communs aux trois méthodes. ExternalReference porte
// l'ID de commande interne — c'est la clé de corrélation unique que le
// webhook renverra.
type ChargeRequest struct {
	CustomerID        string
	Value             float64
	Description       string
	ExternalReference string
	DueDate           string // AAAA-MM-JJ ; défaut : aujourd'hui (PIX/carte), J+3 (boleto)
}

// CardDetails : données carte, sensibles PCI. Transmises au prestataire puis
// oubliées — jamais loguées, jamais persistées.
type CardDetails struct {
	HolderName  string `json:"holderName"`
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiryMonth"`
	ExpiryYear  string `json:"expiryYear"`
	CCV         string `json:"ccv"`
}

// CardHolderInfo : informations de facturation du porteur.
type CardHolderInfo struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	CpfCnpj       string `json:"cpfCnpj"`
	PostalCode    string `json:"postalCode"`
	AddressNumber string `json:"addressNumber"`
	Phone         string `json:"phone,omitempty"`
}

type chargeBody struct {
	Customer          string       `json:"customer"`
	BillingType       string       `json:"billingType"`
	Value             float64      `json:"value"`
	DueDate           string       `json:"dueDate"`
	Description       string       `json:"description,omitempty"`
	ExternalReference string       `json:"externalReference,omitempty"`
	CreditCard        *CardDetails `json:"creditCard,omitempty"`
	CreditCardHolder  *CardHolderInfo `json:"creditCardHolderInfo,omitempty"`
	InstallmentCount  int          `json:"installmentCount,omitempty"`
	InstallmentValue  string       `json:"installmentValue,omitempty"`
}

// CreateCustomer crée le client chez Asaas.
func (c *Client) CreateCustomer(ctx context.Context, req CustomerRequest) (*Customer, error) {
	var customer Customer
	if err := c.post(ctx, "/customers", req, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindCustomerByCpfCnpj recherche un client existant par CPF/CNPJ.
// Renvoie (nil, nil) si aucun client ne correspond.
func (c *Client) FindCustomerByCpfCnpj(ctx context.Context, cpfCnpj string) (*Customer, error) {
	var out struct {
		Data []Customer `json:"data"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("cpfCnpj", cpfCnpj).
		SetResult(&out).
		SetError(&asaasError{}).
		Get("/customers")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	if len(out.Data) == 0 {
		return nil, nil
	}
	return &out.Data[0], nil
}

// CreatePixCharge crée une cobrança PIX puis récupère son QR code.
func (c *Client) CreatePixCharge(ctx context.Context, req ChargeRequest) (*PixPayment, error) {
	body := chargeBody{
		Customer:          req.CustomerID,
		BillingType:       billingPix,
		Value:             req.Value,
		DueDate:           defaultDueDate(req.DueDate, 0),
		Description:       req.Description,
		ExternalReference: req.ExternalReference,
	}

	var payment Payment
	if err := c.post(ctx, "/payments", body, &payment); err != nil {
		return nil, err
	}

	var pix PixDetail
	if err := c.get(ctx, "/payments/"+payment.ID+"/pixQrCode", &pix); err != nil {
		// La cobrança existe déjà, on renvoie ce qu'on a : le QR sera
		// régénéré localement depuis le payload si besoin.
		return &PixPayment{Payment: payment}, nil
	}
	return &PixPayment{Payment: payment, Pix: pix}, nil
}

// CreateCardCharge crée une cobrança carte de crédit. Les champs carte ne
// quittent jamais cette fonction.
func (c *Client) CreateCardCharge(ctx context.Context, req ChargeRequest, card CardDetails, holder CardHolderInfo, installments int) (*Payment, error) {
	if installments < 1 {
		installments = 1
	}
	body := chargeBody{
		Customer:          req.CustomerID,
		BillingType:       billingCard,
		Value:             req.Value,
		DueDate:           defaultDueDate(req.DueDate, 0),
		Description:       req.Description,
		ExternalReference: req.ExternalReference,
		CreditCard:        &card,
		CreditCardHolder:  &holder,
		InstallmentCount:  installments,
	}
	if installments > 1 {
		body.InstallmentValue = fmt.Sprintf("%.2f", req.Value/float64(installments))
	}

	var payment Payment
	if err := c.post(ctx, "/payments", body, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// CreateBoletoCharge crée un boleto, échéance à J+3 par défaut.
func (c *Client) CreateBoletoCharge(ctx context.Context, req ChargeRequest) (*Payment, error) {
	body := chargeBody{
		Customer:          req.CustomerID,
		BillingType:       billingBoleto,
		Value:             req.Value,
		DueDate:           defaultDueDate(req.DueDate, 3),
		Description:       req.Description,
		ExternalReference: req.ExternalReference,
	}

	var payment Payment
	if err := c.post(ctx, "/payments", body, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetPayment consulte le statut d'une cobrança.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	var payment Payment
	if err := c.get(ctx, "/payments/"+paymentID, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// Refund estorne une cobrança, totalement (value nil) ou partiellement.
func (c *Client) Refund(ctx context.Context, paymentID string, value *float64) (*Payment, error) {
	body := map[string]any{}
	if value != nil {
		body["value"] = *value
	}
	var payment Payment
	if err := c.post(ctx, "/payments/"+paymentID+"/refund", body, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// Delete annule une cobrança non payée côté prestataire.
func (c *Client) Delete(ctx context.Context, paymentID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetError(&asaasError{}).
		Delete("/payments/" + paymentID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		SetError(&asaasError{}).
		Post(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(result).
		SetError(&asaasError{}).
		Get(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

func apiError(resp *resty.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode()}
	if parsed, ok := resp.Error().(*asaasError); ok && len(parsed.Errors) > 0 {
		apiErr.Code = parsed.Errors[0].Code
		apiErr.Description = parsed.Errors[0].Description
	}
	return apiErr
}

func defaultDueDate(given string, plusDays int) string {
	if given != "" {
		return given
	}
	return time.Now().AddDate(0, 0, plusDays).Format("2006-01-02")
}
