package main

import (
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Index provides same details like `Status` handler by redirecting the request.
func (api *APIHandler) Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	http.Redirect(w, r, "/status", http.StatusSeeOther)
}

// Status provides basics details about the application to the public users.
func (api *APIHandler) Status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	resp := StatusResponse{
		RequestID: requestID,
		Status:    fmt.Sprintf("up & running since %.0f mins", api.clock.Now().Sub(api.stats.started).Minutes()),
		Message:   "Hello. Books catalog api is available. Enjoy :)",
	}
	if err := WriteJSON(r.Context(), w, http.StatusOK, resp); err != nil {
		api.logger.Error("failed to send status response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// CreateBook validates and stores a new book then returns it with its assigned id.
//
//	@Summary	Add a book
//	@Tags		books
//	@Accept		json
//	@Produce	json
//	@Param		book	body		BookInput	true	"book to add"
//	@Success	200		{object}	BookCreatedResponse
//	@Failure	422		{object}	APIError
//	@Router		/books [post]
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input BookInput
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	err := DecodeBookInput(r, &input)
	if err != nil {
		api.logger.Error("failed to create book", zap.String("request.id", requestID), zap.Error(err))
		api.writeError(w, r, err, "failed to create the book")
		return
	}

	book, err := api.bookService.Add(r.Context(), input)
	if err != nil {
		api.logger.Error("failed to create book", zap.String("request.id", requestID), zap.Error(err))
		api.writeError(w, r, err, "failed to create the book")
		return
	}
	api.logger.Info("success to create book", zap.Int64("book.id", book.ID), zap.String("request.id", requestID))
	resp := BookCreatedResponse{Success: true, Message: "Successfully added book", Data: book}
	if err = WriteJSON(r.Context(), w, http.StatusOK, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetAllBooks returns every stored book, an empty list if there is none.
//
//	@Summary	List all books
//	@Tags		books
//	@Produce	json
//	@Success	200	{array}	Book
//	@Router		/books [get]
func (api *APIHandler) GetAllBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	books, err := api.bookService.GetAll(r.Context())
	if err != nil {
		api.logger.Error("failed to get all books", zap.String("request.id", requestID), zap.Error(err))
		api.writeError(w, r, err, "failed to get all books")
		return
	}
	api.logger.Info("success to get all books", zap.Int("books.total", len(books)), zap.String("request.id", requestID))
	if err = WriteJSON(r.Context(), w, http.StatusOK, books); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetOneBook returns the book identified by the `id` path parameter.
//
//	@Summary	Get a book
//	@Tags		books
//	@Produce	json
//	@Param		id	path		int	true	"book id"
//	@Success	200	{object}	Book
//	@Failure	404	{object}	APIError
//	@Router		/books/{id} [get]
func (api *APIHandler) GetOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	rawID := ps.ByName("id")
	id, err := ParseBookID(rawID)
	if err != nil {
		api.logger.Error("book id provided is not valid", zap.String("book.id", rawID), zap.String("request.id", requestID))
		api.writeError(w, r, err, "book id provided is not valid")
		return
	}

	book, err := api.bookService.GetOne(r.Context(), id)
	if err != nil {
		api.logger.Error("failed to get book", zap.Int64("book.id", id), zap.String("request.id", requestID), zap.Error(err))
		api.writeError(w, r, err, "failed to get the book")
		return
	}
	api.logger.Info("success to get book", zap.Int64("book.id", id), zap.String("request.id", requestID))
	if err = WriteJSON(r.Context(), w, http.StatusOK, book); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}
