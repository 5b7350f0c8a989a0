package validators

import "go.mongodb.org/mongo-driver/bson"

var ItemValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"quantity",
			"is_dummy",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 200,
			},

			"description": bson.M{
				"bsonType":  "string",
				"maxLength": 2000,
			},

			"quantity": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"price": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"category": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},

			"is_dummy": bson.M{
				"bsonType": "bool",
			},

			"display_id": bson.M{
				"bsonType": "int",
				"minimum":  800,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
