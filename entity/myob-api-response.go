package entity

import "fmt"

// MyobPage is the envelope MYOB uses for every collection endpoint.
type MyobPage[T any] struct {
	Items        []T    `json:"Items"`
	NextPageLink string `json:"NextPageLink"`
	Count        int    `json:"Count"`
}

type MyobItem struct {
	UID            string `json:"UID"`
	Number         string `json:"Number"`
	Name           string `json:"Name"`
	IsActive       bool   `json:"IsActive"`
	IsSold         bool   `json:"IsSold"`
	SellingDetails struct {
		BaseSellingPrice float64      `json:"BaseSellingPrice"`
		TaxCode          *MyobTaxCode `json:"TaxCode"`
	} `json:"SellingDetails"`
	URI string `json:"URI"`
}

type MyobTaxCode struct {
	UID  string  `json:"UID"`
	Code string  `json:"Code"`
	Rate float64 `json:"Rate,omitempty"`
	URI  string  `json:"URI,omitempty"`
}

type MyobCustomer struct {
	UID         string `json:"UID"`
	DisplayID   string `json:"DisplayID"`
	CompanyName string `json:"CompanyName"`
	IsActive    bool   `json:"IsActive"`
}

// MyobErrorResponse is returned by MYOB with non-2xx statuses.
type MyobErrorResponse struct {
	Errors      []MyobError `json:"Errors"`
	Information string      `json:"Information"`
}

type MyobError struct {
	Name              string `json:"Name"`
	Message           string `json:"Message"`
	AdditionalDetails string `json:"AdditionalDetails"`
	ErrorCode         int    `json:"ErrorCode"`
	Severity          string `json:"Severity"`
}

func (e MyobError) String() string {
	if e.AdditionalDetails != "" {
		return fmt.Sprintf("[%d] %s: %s (%s)", e.ErrorCode, e.Name, e.Message, e.AdditionalDetails)
	}
	return fmt.Sprintf("[%d] %s: %s", e.ErrorCode, e.Name, e.Message)
}

// MyobResponse is the full response returned for POST requests.
type MyobResponse struct {
	StatusCode    int               `json:"status_code"`
	StatusMessage string            `json:"status_message"`
	Headers       map[string]string `json:"headers"`
	Body          []byte            `json:"-"`
	Synthetic     bool              `json:"synthetic,omitempty"`
}

// Location returns the URI of the created resource, when MYOB sent one.
func (r *MyobResponse) Location() string {
	if r == nil || r.Headers == nil {
		return ""
	}
	return r.Headers["Location"]
}
