package b2

// authorizeAccountResponse mirrors the subset of b2_authorize_account we read.
type authorizeAccountResponse struct {
	Allowed struct {
		BucketID string `json:"bucketId"`
	} `json:"allowed"`
	APIURL             string `json:"apiUrl"`
	AuthorizationToken string `json:"authorizationToken"`
	DownloadURL        string `json:"downloadUrl"`
}

type getUploadURLRequest struct {
	BucketID string `json:"bucketId"`
}

type getUploadURLResponse struct {
	AuthorizationToken string `json:"authorizationToken"`
	BucketID           string `json:"bucketId"`
	UploadURL          string `json:"uploadUrl"`
}

// errorResponse is the body B2 sends with every non-2xx status.
type errorResponse struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
