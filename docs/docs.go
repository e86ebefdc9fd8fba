// Package docs 按 handler 上的 swag 注释维护的 Swagger 描述，由 swag 注册后经 /swagger 提供。
// 新增或修改 @Router 时同步更新这里。
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["系统"],
                "summary": "健康检查",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/users/register/": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["用户"],
                "summary": "注册新用户",
                "parameters": [
                    {"description": "邮箱和密码", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.RegisterInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/users/token/": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["用户"],
                "summary": "用邮箱密码换取 JWT",
                "parameters": [
                    {"description": "邮箱和密码", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.tokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/posts/create/": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["帖子"],
                "summary": "发帖；broker 可用时延迟创建返回 202，否则立即创建返回 201",
                "parameters": [
                    {"description": "帖子内容", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.createPostRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}},
                    "202": {"description": "已排队，响应头 X-Scheduled-Job 为任务 ID"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/posts/list/": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["帖子"],
                "summary": "帖子列表（title 优先于 created_time）",
                "parameters": [
                    {"type": "string", "description": "标题包含（不区分大小写）", "name": "title", "in": "query"},
                    {"type": "string", "description": "创建日期 YYYY-MM-DD", "name": "created_time", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/posts/list/{id}/": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["帖子"],
                "summary": "帖子详情（含评论与赞/踩用户）",
                "parameters": [
                    {"type": "string", "description": "帖子ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/posts/list/{id}/like/": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["反应"],
                "summary": "点赞（已点踩则切换为赞）",
                "parameters": [
                    {"type": "string", "description": "帖子ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "302": {"description": "重定向到帖子列表"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/posts/list/{id}/dislike/": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["反应"],
                "summary": "点踩（已点赞则切换为踩）",
                "parameters": [
                    {"type": "string", "description": "帖子ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "302": {"description": "重定向到帖子列表"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/posts/list/{id}/add-comment/": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["评论"],
                "summary": "给帖子添加评论",
                "parameters": [
                    {"type": "string", "description": "帖子ID", "name": "id", "in": "path", "required": true},
                    {"description": "评论内容", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.addCommentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/posts/my-posts/": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["帖子"],
                "summary": "当前用户的帖子",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/posts/following/": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["帖子"],
                "summary": "关注的人的帖子（按时间倒序）",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/profiles/list/{id}/follow/": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["关系链"],
                "summary": "关注某个资料对应的用户",
                "parameters": [
                    {"type": "string", "description": "资料ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "302": {"description": "重定向到资料列表"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/profiles/list/{id}/unfollow/": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["关系链"],
                "summary": "取消关注",
                "parameters": [
                    {"type": "string", "description": "资料ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "302": {"description": "重定向到资料列表"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/users/me/": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["用户"],
                "summary": "当前用户信息",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/posts/list/{id}/unreact/": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["反应"],
                "summary": "取消赞或踩，没有则什么都不做",
                "parameters": [
                    {"type": "string", "description": "帖子ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "302": {"description": "重定向到帖子列表"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/comments/list/": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["评论"],
                "summary": "评论列表（按时间升序）",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/profiles/create/": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["资料"],
                "summary": "为当前用户创建资料",
                "parameters": [
                    {"description": "资料", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.ProfileInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/profiles/list/": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["资料"],
                "summary": "资料列表（username 优先于 location）",
                "parameters": [
                    {"type": "string", "description": "用户名包含", "name": "username", "in": "query"},
                    {"type": "string", "description": "地区包含", "name": "location", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/profiles/list/{id}/": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["资料"],
                "summary": "资料详情",
                "parameters": [
                    {"type": "string", "description": "资料ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/profiles/list/{id}/following/": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["关系链"],
                "summary": "查询关注列表",
                "parameters": [
                    {"type": "string", "description": "资料ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "default": 1, "description": "页码", "name": "page", "in": "query"},
                    {"type": "integer", "default": 10, "description": "每页数量", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/profiles/list/{id}/followers/": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["关系链"],
                "summary": "查询粉丝列表",
                "parameters": [
                    {"type": "string", "description": "资料ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "default": 1, "description": "页码", "name": "page", "in": "query"},
                    {"type": "integer", "default": 10, "description": "每页数量", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/profiles/me/": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["资料"],
                "summary": "当前用户的资料",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/profiles/me/update/": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["资料"],
                "summary": "部分更新当前用户的资料",
                "parameters": [
                    {"description": "要修改的字段", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.ProfilePatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        }
    },
    "definitions": {
        "service.ProfileInput": {
            "type": "object",
            "required": ["username"],
            "properties": {
                "bio": {"type": "string", "maxLength": 100},
                "first_name": {"type": "string", "maxLength": 100},
                "last_name": {"type": "string", "maxLength": 100},
                "location": {"type": "string", "maxLength": 100},
                "username": {"type": "string", "maxLength": 100}
            }
        },
        "service.ProfilePatch": {
            "type": "object",
            "properties": {
                "bio": {"type": "string", "maxLength": 100},
                "first_name": {"type": "string", "maxLength": 100},
                "last_name": {"type": "string", "maxLength": 100},
                "location": {"type": "string", "maxLength": 100},
                "username": {"type": "string", "maxLength": 100}
            }
        },
        "response.Response": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "data": {},
                "errors": {},
                "message": {"type": "string"}
            }
        },
        "service.RegisterInput": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 5}
            }
        },
        "handler.tokenRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handler.createPostRequest": {
            "type": "object",
            "required": ["content", "title"],
            "properties": {
                "content": {"type": "string"},
                "created_time": {"type": "string"},
                "title": {"type": "string", "maxLength": 63}
            }
        },
        "handler.addCommentRequest": {
            "type": "object",
            "required": ["content"],
            "properties": {
                "content": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Social API",
	Description:      "帖子、评论、赞/踩、关注与延迟发帖",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
