// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/z5labs/apio/apierror"
	"github.com/z5labs/apio/form"
	"github.com/z5labs/apio/message/plainjson"
	"github.com/z5labs/apio/registry"
	"github.com/z5labs/apio/representor"
	"github.com/z5labs/apio/routes"

	"github.com/swaggest/jsonschema-go"
	"github.com/swaggest/openapi-go/openapi3"
	"github.com/z5labs/sdk-go/ptr"
)

func (api *Api) serveOpenAPI(w http.ResponseWriter, r *http.Request) {
	spec, err := api.openAPI()
	if err != nil {
		api.writeError(r.Context(), w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	err = enc.Encode(spec)
	if err == nil {
		return
	}
	api.log.ErrorContext(
		r.Context(),
		"failed to encode openapi schema to json",
		slog.Any("error", err),
	)
}

func (api *Api) serveForm(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "formId")
	if err != nil {
		api.writeError(r.Context(), w, r, err)
		return
	}
	f, ok := api.registry.Form(id)
	if !ok {
		api.writeError(r.Context(), w, r, apierror.NotFoundError{Resource: id})
		return
	}

	w.Header().Set("Content-Type", "application/schema+json")
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(f.SchemaJSON())
	if err != nil {
		api.log.ErrorContext(r.Context(), "failed to write form schema", slog.Any("error", err))
	}
}

// openAPI describes every registered resource. It is rebuilt per request
// since resources may be registered at any time.
func (api *Api) openAPI() (*openapi3.Spec, error) {
	spec := &openapi3.Spec{
		Openapi: "3.0.3",
		Info: openapi3.Info{
			Title:   api.title,
			Version: api.version,
		},
	}

	forms := make(map[string]*form.Form)
	for rsc := range api.registry.Resources() {
		item := representorSchema(rsc.Representor, true)

		for _, route := range rsc.Routes.Routes() {
			path, params := routePath(rsc, route)
			err := spec.AddOperation(route.Operation.Method, path, api.operationDef(rsc, route, item, params))
			if err != nil {
				return nil, err
			}
			if route.Operation.Form != nil {
				forms[route.Operation.Form.ID()] = route.Operation.Form
			}
		}

		for _, f := range rsc.Representor.Fields() {
			if f.Kind != representor.KindBinary {
				continue
			}
			err := spec.AddOperation(http.MethodGet, "/b/"+rsc.Name+"/{id}/"+f.Key, binaryOperation(rsc, f))
			if err != nil {
				return nil, err
			}
		}
	}

	for id := range forms {
		err := spec.AddOperation(http.MethodGet, "/f/"+id, formOperation(id))
		if err != nil {
			return nil, err
		}
	}
	return spec, nil
}

func routePath(rsc registry.Resource, route routes.Route) (string, []openapi3.ParameterOrRef) {
	op := route.Operation
	custom := strings.TrimPrefix(op.Name, rsc.Name+"/")
	id := []openapi3.ParameterOrRef{pathParameter("id")}

	switch {
	case route.Parent != "":
		return "/p/" + route.Parent + "/{id}/" + rsc.Name, append(id, paginationParameters()...)
	case op.Custom && op.Collection:
		return "/p/" + rsc.Name + "/" + custom, nil
	case op.Custom:
		return "/p/" + rsc.Name + "/{id}/" + custom, id
	case op.Collection && route.Result == routes.PageResult:
		return "/p/" + rsc.Name, paginationParameters()
	case op.Collection:
		return "/p/" + rsc.Name, nil
	default:
		return "/p/" + rsc.Name + "/{id}", id
	}
}

func pathParameter(name string) openapi3.ParameterOrRef {
	var schemaOrRef openapi3.SchemaOrRef
	schemaOrRef.FromJSONSchema(schemaOrBool(typedSchema(jsonschema.String, "")))

	return openapi3.ParameterOrRef{
		Parameter: &openapi3.Parameter{
			Name:     name,
			In:       openapi3.ParameterInPath,
			Required: ptr.Ref(true),
			Schema:   &schemaOrRef,
		},
	}
}

func paginationParameters() []openapi3.ParameterOrRef {
	query := func(name, description string) openapi3.ParameterOrRef {
		var schemaOrRef openapi3.SchemaOrRef
		schemaOrRef.FromJSONSchema(schemaOrBool(typedSchema(jsonschema.Integer, "")))

		return openapi3.ParameterOrRef{
			Parameter: &openapi3.Parameter{
				Name:        name,
				In:          openapi3.ParameterInQuery,
				Description: ptr.Ref(description),
				Schema:      &schemaOrRef,
			},
		}
	}
	return []openapi3.ParameterOrRef{
		query("page", "Page number, starting at 1."),
		query("per_page", "Items per page."),
	}
}

func (api *Api) operationDef(rsc registry.Resource, route routes.Route, item jsonschema.Schema, params []openapi3.ParameterOrRef) openapi3.Operation {
	op := route.Operation
	id := op.Name
	if route.Parent != "" {
		id = op.Name + "-by-" + route.Parent
	}

	def := openapi3.Operation{
		ID:         ptr.Ref(id),
		Tags:       []string{rsc.Name},
		Parameters: params,
		Responses: openapi3.Responses{
			Default: &openapi3.ResponseOrRef{
				Response: problemResponse(),
			},
			MapOfResponseOrRefValues: make(map[string]openapi3.ResponseOrRef),
		},
	}

	if op.Form != nil {
		var schemaOrRef openapi3.SchemaOrRef
		schemaOrRef.FromJSONSchema(schemaOrBool(op.Form.Schema()))

		def.RequestBody = &openapi3.RequestBodyOrRef{
			RequestBody: &openapi3.RequestBody{
				Required: ptr.Ref(true),
				Content: map[string]openapi3.MediaType{
					"application/json": {
						Schema: &schemaOrRef,
					},
				},
			},
		}
	}

	status := http.StatusOK
	var resp *openapi3.Response
	switch route.Result {
	case routes.SingleResult:
		resp = api.documentResponse("A single "+rsc.Name+" item.", item)
		if !op.Custom && op.Collection && op.Method == http.MethodPost {
			status = http.StatusCreated
		}
	case routes.PageResult:
		resp = api.documentResponse("A page of "+rsc.Name+".", pageSchema(item))
	default:
		status = http.StatusNoContent
		resp = &openapi3.Response{Description: "No content."}
	}
	def.Responses.MapOfResponseOrRefValues[strconv.Itoa(status)] = openapi3.ResponseOrRef{
		Response: resp,
	}
	return def
}

// documentResponse lists every negotiable media type. Only plain JSON has a
// fixed shape which can be described up front.
func (api *Api) documentResponse(description string, schema jsonschema.Schema) *openapi3.Response {
	resp := &openapi3.Response{
		Description: description,
		Content:     make(map[string]openapi3.MediaType),
	}
	for _, mt := range api.negotiator.MediaTypes() {
		s := typedSchema(jsonschema.Object, "")
		if mt == plainjson.MediaType {
			s = schema
		}

		var schemaOrRef openapi3.SchemaOrRef
		schemaOrRef.FromJSONSchema(schemaOrBool(s))
		resp.Content[mt] = openapi3.MediaType{
			Schema: &schemaOrRef,
		}
	}
	return resp
}

func problemResponse() *openapi3.Response {
	var reflector jsonschema.Reflector
	schema, err := reflector.Reflect(apierror.ProblemDetail{}, jsonschema.InlineRefs)
	if err != nil {
		schema = typedSchema(jsonschema.Object, "")
	}

	var schemaOrRef openapi3.SchemaOrRef
	schemaOrRef.FromJSONSchema(schemaOrBool(schema))

	return &openapi3.Response{
		Description: "An error.",
		Content: map[string]openapi3.MediaType{
			"application/problem+json": {
				Schema: &schemaOrRef,
			},
		},
	}
}

func binaryOperation(rsc registry.Resource, f representor.Field) openapi3.Operation {
	return openapi3.Operation{
		ID:         ptr.Ref(rsc.Name + "/binary/" + f.Key),
		Tags:       []string{rsc.Name},
		Parameters: []openapi3.ParameterOrRef{pathParameter("id")},
		Responses: openapi3.Responses{
			Default: &openapi3.ResponseOrRef{
				Response: problemResponse(),
			},
			MapOfResponseOrRefValues: map[string]openapi3.ResponseOrRef{
				"200": {
					Response: &openapi3.Response{
						Description: "The " + f.Key + " payload.",
					},
				},
			},
		},
	}
}

func formOperation(id string) openapi3.Operation {
	return openapi3.Operation{
		ID:   ptr.Ref("form/" + id),
		Tags: []string{"forms"},
		Responses: openapi3.Responses{
			MapOfResponseOrRefValues: map[string]openapi3.ResponseOrRef{
				"200": {
					Response: &openapi3.Response{
						Description: "The JSON schema of the " + id + " form.",
					},
				},
			},
		},
	}
}

func typedSchema(t jsonschema.SimpleType, format string) jsonschema.Schema {
	var s jsonschema.Schema
	s.WithType(t.Type())
	if format != "" {
		s.WithFormat(format)
	}
	return s
}

func arraySchema(items jsonschema.Schema) jsonschema.Schema {
	s := typedSchema(jsonschema.Array, "")
	s.WithItems(jsonschema.Items{
		SchemaOrBool: ptr.Ref(schemaOrBool(items)),
	})
	return s
}

// representorSchema describes the plain JSON document of rep. Nested models
// have no self link.
func representorSchema(rep *representor.Representor, self bool) jsonschema.Schema {
	s := typedSchema(jsonschema.Object, "")
	if self {
		s.WithPropertiesItem("self", schemaOrBool(typedSchema(jsonschema.String, "uri")))
	}
	for _, f := range rep.Fields() {
		fs, ok := fieldSchema(f, self)
		if ok {
			s.WithPropertiesItem(f.Key, schemaOrBool(fs))
		}
	}
	for _, rel := range rep.Relations() {
		s.WithPropertiesItem(rel.Key, schemaOrBool(typedSchema(jsonschema.String, "uri")))
	}
	return s
}

func fieldSchema(f representor.Field, topLevel bool) (jsonschema.Schema, bool) {
	switch f.Kind {
	case representor.KindBoolean:
		return typedSchema(jsonschema.Boolean, ""), true
	case representor.KindNumber:
		return typedSchema(jsonschema.Number, ""), true
	case representor.KindString, representor.KindLocalizedString:
		return typedSchema(jsonschema.String, ""), true
	case representor.KindDate:
		return typedSchema(jsonschema.String, "date-time"), true
	case representor.KindBinary:
		// binaries of nested models have no address
		return typedSchema(jsonschema.String, "uri"), topLevel
	case representor.KindLink, representor.KindRelativeURL:
		return typedSchema(jsonschema.String, "uri"), true
	case representor.KindBooleanList:
		return arraySchema(typedSchema(jsonschema.Boolean, "")), true
	case representor.KindNumberList:
		return arraySchema(typedSchema(jsonschema.Number, "")), true
	case representor.KindStringList:
		return arraySchema(typedSchema(jsonschema.String, "")), true
	case representor.KindNested:
		return representorSchema(f.Nested, false), true
	case representor.KindNestedList:
		return arraySchema(representorSchema(f.Nested, false)), true
	default:
		return jsonschema.Schema{}, false
	}
}

func pageSchema(item jsonschema.Schema) jsonschema.Schema {
	uriSchema := schemaOrBool(typedSchema(jsonschema.String, "uri"))

	pages := typedSchema(jsonschema.Object, "")
	for _, key := range []string{"first", "last", "next", "prev"} {
		pages.WithPropertiesItem(key, uriSchema)
	}

	s := typedSchema(jsonschema.Object, "")
	s.WithPropertiesItem("collection", uriSchema)
	s.WithPropertiesItem("self", uriSchema)
	s.WithPropertiesItem("pages", schemaOrBool(pages))
	s.WithPropertiesItem("totalNumberOfItems", schemaOrBool(typedSchema(jsonschema.Integer, "")))
	s.WithPropertiesItem("numberOfItems", schemaOrBool(typedSchema(jsonschema.Integer, "")))
	s.WithPropertiesItem("elements", schemaOrBool(arraySchema(item)))
	return s
}

func schemaOrBool(s jsonschema.Schema) jsonschema.SchemaOrBool {
	return s.ToSchemaOrBool()
}
